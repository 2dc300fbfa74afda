package redsheet

import (
	"net/mail"
	"strings"
	"time"

	"github.com/nightcity/redsheet/internal/apperr"
)

const (
	UsernameMinLength = 3
	PasswordMinLength = 8
)

// User is an account. Credentials are kept by the store, never on this type.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r Registration) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Invalid("email is not a valid address")
	}
	if len(strings.TrimSpace(r.Username)) < UsernameMinLength {
		return apperr.Invalid("username must be at least 3 characters")
	}
	if len(r.Password) < PasswordMinLength {
		return apperr.Invalid("password must be at least 8 characters")
	}
	return nil
}
