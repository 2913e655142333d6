package user

import (
	"errors"
	"time"
)

const (
	StatusActive  = "active"
	StatusBlocked = "blocked"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Status       string    `json:"status"`
	LastLogin    time.Time `json:"lastLogin"`
}

// IsBlocked reports whether the account is barred from logging in and
// from mutating the roster.
func (u User) IsBlocked() bool {
	return u.Status == StatusBlocked
}
