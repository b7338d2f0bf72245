package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactNotOwned = errors.New("artifact belongs to another user")
)

type ArtifactRepository interface {
	ByArtifactID(artifactID string) (*model.Artifact, error)
	Save(artifact *model.Artifact) error
}

type artifactRepository struct {
	db *sqlx.DB
}

func NewArtifactRepository(db *sqlx.DB) ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) ByArtifactID(artifactID string) (*model.Artifact, error) {
	artifact := &model.Artifact{}
	err := r.db.Get(artifact, `SELECT * FROM artifacts WHERE artifact_id = $1`, artifactID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Save creates the artifact or replaces its documents. An artifact_id held by another
// user is left untouched and reported as ErrArtifactNotOwned.
func (r *artifactRepository) Save(a *model.Artifact) error {
	query := `
		INSERT INTO artifacts (id, artifact_id, user_id, code, diagram, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (artifact_id) DO UPDATE SET
			code = excluded.code,
			diagram = excluded.diagram,
			updated_at = excluded.updated_at
		WHERE artifacts.user_id = excluded.user_id
	`
	res, err := r.db.Exec(query, a.ID, a.ArtifactID, a.UserID, a.Code, a.Diagram, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrArtifactNotOwned
	}
	return nil
}
