// Package domain contains the meal-planning entities, the pure nutrition
// calculations and the ports the application services depend on.
package domain

import (
	"context"
	"time"
)

// User is an account that owns a profile and a meal plan. PasswordHash is
// empty for accounts provisioned through single sign-on.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an active login bound to the client that created it.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository is the port for account persistence. Lookups that find
// nothing return (nil, nil).
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, email, passwordHash string) (*User, error)
}

// SessionRepository is the port for session persistence.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
