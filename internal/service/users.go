package service

import (
	"bitwise74/user-api/internal/model"
	"bitwise74/user-api/internal/stash"
	"bitwise74/user-api/internal/store"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

var (
	ErrValidation = errors.New("name and email are required")
	ErrConflict   = errors.New("email already exists")
	ErrNotFound   = errors.New("user not found")
)

// Upload is a file attached to a create or update request
type Upload struct {
	Name string
	Body io.Reader
}

type CreateInput struct {
	Name  string
	Email string
	Phone string
	File  *Upload
}

// UpdateInput fields left empty keep their current value
type UpdateInput struct {
	Name  string
	Email string
	Phone string
	File  *Upload
}

// UserStore is the subset of the record store the service needs
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint) error
}

type UserService struct {
	store    UserStore
	stash    stash.Stash
	notifier Notifier
}

func NewUserService(s UserStore, st stash.Stash, n Notifier) *UserService {
	return &UserService{
		store:    s,
		stash:    st,
		notifier: n,
	}
}

func (s *UserService) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	if in.Name == "" || in.Email == "" {
		return nil, ErrValidation
	}

	u := &model.User{
		Name:  in.Name,
		Email: in.Email,
		Phone: optional(in.Phone),
	}

	if in.File != nil {
		p, err := s.stash.Store(ctx, in.File.Body, in.File.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to store profile picture, %w", err)
		}
		u.ProfilePic = &p
	}

	// A file stored above stays behind if the insert fails
	if err := s.store.Create(ctx, u); err != nil {
		return nil, mapStoreErr(err)
	}

	s.notifier.SendConfirmation(u.Email, u.Name, in.Phone)

	created, err := s.store.Get(ctx, u.ID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return u, nil
}

// Update merges in over the stored row. The read and the write are
// separate statements, two concurrent updates of one user may lose one
// of them.
func (s *UserService) Update(ctx context.Context, id uint, in UpdateInput) (*model.User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Phone != "" {
		u.Phone = &in.Phone
	}

	var previous, stored *string
	if in.File != nil {
		p, err := s.stash.Store(ctx, in.File.Body, in.File.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to store profile picture, %w", err)
		}

		previous = u.ProfilePic
		stored = &p
		u.ProfilePic = stored
	}

	if err := s.store.Update(ctx, u); err != nil {
		// Nothing points at the new picture, previous stays in place
		stash.RemoveBestEffort(ctx, s.stash, stored)
		return nil, mapStoreErr(err)
	}

	// The old picture is gone for good once the row points at the new one
	stash.RemoveBestEffort(ctx, s.stash, previous)

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}

	stash.RemoveBestEffort(ctx, s.stash, u.ProfilePic)

	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	zap.L().Debug("User deleted", zap.Uint("id", id))
	return nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrConflict
	}

	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
