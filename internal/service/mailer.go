package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier tells a freshly registered user that their registration went
// through. Implementations must not block the caller.
type Notifier interface {
	SendConfirmation(to, name, phone string)
}

type MailOptions struct {
	Host       string
	Port       int
	Secure     bool // Implicit TLS, usually port 465
	User       string
	Password   string
	FromName   string
	FromAddr   string
	AppName    string
	AppTagline string // Shown in brackets after AppName, left out when empty
}

// sender is satisfied by *gomail.Dialer
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends confirmation mails over SMTP. Every mail goes out on its
// own goroutine, the outcome is only ever logged.
type Mailer struct {
	o      MailOptions
	dialer *gomail.Dialer
	send   sender
	wg     sync.WaitGroup
}

func NewMailer(o MailOptions) *Mailer {
	d := gomail.NewDialer(o.Host, o.Port, o.User, o.Password)
	d.SSL = o.Secure

	if o.FromAddr == "" {
		o.FromAddr = o.User
	}

	if o.AppName == "" {
		o.AppName = "App"
	}

	return &Mailer{
		o:      o,
		dialer: d,
		send:   d,
	}
}

// Verify checks that the SMTP server accepts our credentials. It never
// fails startup, the result is logged and returned for callers who care.
func (m *Mailer) Verify(ctx context.Context) error {
	if m.o.Host == "" {
		err := errors.New("no mail host configured")
		zap.L().Warn("Mailer verify failed (check env)", zap.Error(err))
		return err
	}

	done := make(chan error, 1)
	go func() {
		s, err := m.dialer.Dial()
		if err == nil {
			err = s.Close()
		}
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		zap.L().Warn("Mailer verify failed (check env)", zap.Error(err))
		return err
	}

	zap.L().Info("Mailer ready", zap.String("host", m.o.Host), zap.Int("port", m.o.Port))
	return nil
}

func (m *Mailer) SendConfirmation(to, name, phone string) {
	msg := m.confirmation(to, name, phone)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		if err := m.send.DialAndSend(msg); err != nil {
			zap.L().Warn("Failed to send confirmation email", zap.String("to", to), zap.Error(err))
			return
		}

		zap.L().Info("Confirmation email sent", zap.String("to", to))
	}()
}

// Wait blocks until every mail handed to SendConfirmation has been dealt with
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func (m *Mailer) confirmation(to, name, phone string) *gomail.Message {
	fromName := m.o.FromName
	signature := m.o.FromName
	if fromName == "" {
		fromName = "App"
		signature = "Team"
	}

	if phone == "" {
		phone = "N/A"
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.o.FromAddr, fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Registration Successful - "+m.o.AppName)

	tagline := ""
	if m.o.AppTagline != "" {
		tagline = " (" + m.o.AppTagline + ")"
	}

	msg.SetBody("text/plain", fmt.Sprintf(
		"Hi %v,\n\nYour registration on %v%v was successful.\n\nThanks,\n%v",
		name, m.o.AppName, tagline, signature))

	e := html.EscapeString
	msg.AddAlternative("text/html", fmt.Sprintf(`<h2>Registration Successful</h2>
<p>Hi <b>%v</b>,</p>
<p>Your registration on <b>%v</b>%v was successful.</p>
<p>We saved the following information:</p>
<ul>
  <li><b>Name:</b> %v</li>
  <li><b>Email:</b> %v</li>
  <li><b>Phone:</b> %v</li>
</ul>
<p>Thanks,<br/>%v</p>`, e(name), e(m.o.AppName), e(tagline), e(name), e(to), e(phone), e(signature)))

	return msg
}
