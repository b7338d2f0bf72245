package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicateSlug  = errors.New("user slug already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	BySlug(slug string) (*model.User, error)
	BySlugs(slugs []string) ([]*model.User, error)
	SlugExists(slug string) (bool, error)
	UpdateImageURL(id string, imageURL *string) error
	SetTrusted(id string, trusted bool) error
	ResetPassword(id, passwordHash string) error
	Count() (int, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, name, slug, email, password_hash, image_url, is_trusted, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Name,
		user.Slug,
		user.Email,
		user.PasswordHash,
		user.ImageURL,
		user.IsTrusted,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// Check for unique constraint violation (works for both SQLite and PostgreSQL)
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "slug") {
				return ErrDuplicateSlug
			}
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) BySlug(slug string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE slug = $1`

	err := r.db.Get(user, query, slug)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) BySlugs(slugs []string) ([]*model.User, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM users WHERE slug IN (?)`, slugs)
	if err != nil {
		return nil, err
	}

	var users []*model.User
	err = r.db.Select(&users, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SlugExists(slug string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users WHERE slug = $1`, slug)
	return count > 0, err
}

func (r *userRepository) UpdateImageURL(id string, imageURL *string) error {
	query := `UPDATE users SET image_url = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.Exec(query, imageURL, time.Now().UTC(), id)
	return err
}

func (r *userRepository) SetTrusted(id string, trusted bool) error {
	result, err := r.db.Exec(`UPDATE users SET is_trusted = $1, updated_at = $2 WHERE id = $3`, trusted, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword stores the new hash and revokes every token of the user in one transaction.
func (r *userRepository) ResetPassword(id, passwordHash string) error {
	return db.Transact(r.db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, time.Now().UTC(), id)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`DELETE FROM tokens WHERE user_id = $1`, id)
		return err
	})
}

func (r *userRepository) Count() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// isUniqueViolation matches SQLite and PostgreSQL unique constraint errors.
func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
