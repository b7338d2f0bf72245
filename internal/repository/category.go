package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
)

type CategoryRepository interface {
	List(modType string) ([]*model.Category, error)
	ByID(id int64) (*model.Category, error)
}

type categoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List returns categories sorted by name; an empty type returns all of them.
func (r *categoryRepository) List(modType string) ([]*model.Category, error) {
	categories := []*model.Category{}
	var err error
	if modType == "" {
		err = r.db.Select(&categories, `SELECT * FROM categories ORDER BY name ASC`)
	} else {
		err = r.db.Select(&categories, `SELECT * FROM categories WHERE type = $1 ORDER BY name ASC`, modType)
	}
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) ByID(id int64) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.Get(category, `SELECT * FROM categories WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	return category, err
}
