package model

import (
	"time"
)

type Token struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Type      string    `db:"type"` // "session" or "password_reset"
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TokenTypeSession       = "session"
	TokenTypePasswordReset = "password_reset"
)

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
