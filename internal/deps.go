package internal

import (
	"bitwise74/user-api/internal/service"
	"bitwise74/user-api/internal/stash"

	"gorm.io/gorm"
)

// Deps holds everything handlers need. It's built once at startup and
// passed around explicitly, tests build their own.
type Deps struct {
	DB     *gorm.DB
	Stash  stash.Stash
	Mailer *service.Mailer
	Users  *service.UserService
}
