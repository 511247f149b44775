// Package store implements the record store holding user rows
package store

import (
	"bitwise74/user-api/internal/model"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Users runs single statements against the users table. Every call
// checks a connection out of the pool and hands it back when the
// statement finishes, no transaction spans two calls.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts u and fills in its ID.
func (s *Users) Create(ctx context.Context, u *model.User) error {
	err := s.db.
		WithContext(ctx).
		Create(u).
		Error
	if err != nil {
		return translate(err, "failed to insert user")
	}

	return nil
}

// List returns every user, newest ID first.
func (s *Users) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	err := s.db.
		WithContext(ctx).
		Order("id desc").
		Find(&users).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users, %w", err)
	}

	return users, nil
}

func (s *Users) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User

	err := s.db.
		WithContext(ctx).
		Where("id = ?", id).
		First(&u).
		Error
	if err != nil {
		return nil, translate(err, "failed to fetch user")
	}

	return &u, nil
}

// Update writes every mutable column of u, nil pointers become NULL.
func (s *Users) Update(ctx context.Context, u *model.User) error {
	r := s.db.
		WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"name":        u.Name,
			"email":       u.Email,
			"phone":       u.Phone,
			"profile_pic": u.ProfilePic,
		})
	if r.Error != nil {
		return translate(r.Error, "failed to update user")
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Users) Delete(ctx context.Context, id uint) error {
	r := s.db.
		WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.User{})
	if r.Error != nil {
		return fmt.Errorf("failed to delete user, %w", r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	}

	return fmt.Errorf("%v, %w", msg, err)
}
