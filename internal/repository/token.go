package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(token *model.Token) error
	ByToken(token, tokenType string) (*model.Token, error)
	ActiveUser(token string) (*model.User, error)
	Delete(id string) error
	DeleteByToken(token string) error
	DeleteByUserAndType(userID, tokenType string) error
	DeleteExpired() (int64, error)
	DeleteAll() (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Type,
		token.Token,
		token.ExpiresAt.UTC(),
		token.CreatedAt,
	)
	return err
}

// ByToken returns the token row regardless of expiry so callers can tell expired from unknown.
func (r *tokenRepository) ByToken(token, tokenType string) (*model.Token, error) {
	var t model.Token
	err := r.db.Get(&t, `SELECT * FROM tokens WHERE token = $1 AND type = $2`, token, tokenType)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ActiveUser resolves a non-expired session token to its user.
func (r *tokenRepository) ActiveUser(token string) (*model.User, error) {
	var user model.User
	query := `
		SELECT u.* FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE t.token = $1 AND t.type = $2 AND t.expires_at > $3
	`
	err := r.db.Get(&user, query, token, model.TokenTypeSession, time.Now().UTC())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *tokenRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM tokens WHERE id = $1`, id)
	return err
}

func (r *tokenRepository) DeleteByToken(token string) error {
	_, err := r.db.Exec(`DELETE FROM tokens WHERE token = $1`, token)
	return err
}

func (r *tokenRepository) DeleteByUserAndType(userID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2`
	_, err := r.db.Exec(query, userID, tokenType)
	return err
}

// DeleteExpired removes every token past its expiry.
func (r *tokenRepository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM tokens WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteAll signs everybody out.
func (r *tokenRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM tokens`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
