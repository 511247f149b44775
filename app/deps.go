package app

import (
	"bitwise74/user-api/aws"
	"bitwise74/user-api/db"
	"bitwise74/user-api/internal"
	"bitwise74/user-api/internal/service"
	"bitwise74/user-api/internal/stash"
	"bitwise74/user-api/internal/store"
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewDeps builds every dependency from the loaded config. The SMTP check
// runs in the background and never fails startup.
func NewDeps(ctx context.Context) (*internal.Deps, error) {
	d := &internal.Deps{}

	conn, err := db.New(db.Options{
		Driver:       viper.GetString("db.driver"),
		DSN:          viper.GetString("db.dsn"),
		MaxOpenConns: viper.GetInt("db.max_open_conns"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	switch viper.GetString("storage.type") {
	case "s3":
		c, err := aws.NewS3(ctx, aws.Options{
			AccessKeyID:     viper.GetString("storage.s3.access_key_id"),
			SecretAccessKey: viper.GetString("storage.s3.secret_access_key"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          viper.GetString("storage.s3.bucket"),
			Endpoint:        viper.GetString("storage.s3.endpoint"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		d.Stash = stash.NewS3(c, viper.GetString("storage.s3.prefix"), viper.GetString("storage.s3.public_url"))
	default:
		l, err := stash.NewLocal(viper.GetString("storage.upload_dir"))
		if err != nil {
			return nil, err
		}

		d.Stash = l
	}

	d.Mailer = service.NewMailer(service.MailOptions{
		Host:       viper.GetString("mail.host"),
		Port:       viper.GetInt("mail.port"),
		Secure:     viper.GetBool("mail.secure"),
		User:       viper.GetString("mail.user"),
		Password:   viper.GetString("mail.pass"),
		FromName:   viper.GetString("mail.from_name"),
		FromAddr:   viper.GetString("mail.from_email"),
		AppName:    viper.GetString("mail.app_name"),
		AppTagline: viper.GetString("mail.app_tagline"),
	})

	go func() {
		vctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		d.Mailer.Verify(vctx)
	}()

	d.Users = service.NewUserService(store.NewUsers(conn), d.Stash, d.Mailer)

	zap.L().Debug("Dependencies ready", zap.String("storage", viper.GetString("storage.type")))
	return d, nil
}
