package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

var ErrFileNotFound = errors.New("file not found")

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	Latest(ownerType, ownerID, fileType string) (*model.File, error)
	ByKey(key string) (*model.File, error)
	Delete(id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(f *model.File) error {
	_, err := r.db.Exec(`
		INSERT INTO files (id, user_id, owner_type, owner_id, type, filename, original_name, mime_type, size, storage_path, public, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID, f.UserID, f.OwnerType, f.OwnerID, f.Type, f.Filename,
		f.OriginalName, f.ContentType, f.Size, f.Key, f.Public, f.CreatedAt,
	)
	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	return r.one(`SELECT * FROM files WHERE id = $1`, id)
}

// Latest returns the newest file of fileType for an owner.
func (r *fileRepository) Latest(ownerType, ownerID, fileType string) (*model.File, error) {
	return r.one(`
		SELECT * FROM files
		WHERE owner_type = $1 AND owner_id = $2 AND type = $3
		ORDER BY created_at DESC
		LIMIT 1`, ownerType, ownerID, fileType)
}

// ByKey returns the newest record stored under key.
func (r *fileRepository) ByKey(key string) (*model.File, error) {
	return r.one(`SELECT * FROM files WHERE storage_path = $1 ORDER BY created_at DESC LIMIT 1`, key)
}

func (r *fileRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM files WHERE id = $1`, id)
	return err
}

func (r *fileRepository) one(query string, args ...any) (*model.File, error) {
	f := &model.File{}
	err := r.db.Get(f, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
