package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

type MentionRepository interface {
	Pending() ([]*model.MentionDigestItem, error)
	DeleteByIDs(ids []string) error
}

type mentionRepository struct {
	db *sqlx.DB
}

func NewMentionRepository(db *sqlx.DB) MentionRepository {
	return &mentionRepository{db: db}
}

// Pending returns every queued mention with the names the digest email needs, grouped by target.
func (r *mentionRepository) Pending() ([]*model.MentionDigestItem, error) {
	items := []*model.MentionDigestItem{}
	query := `
		SELECT p.id, p.type, p.message, p.target_user_id,
			t.email AS target_email, t.name AS target_name,
			s.name AS source_name,
			m.name AS mod_name, m.slug AS mod_slug, a.slug AS mod_author_slug
		FROM pending_mentions p
		JOIN users t ON t.id = p.target_user_id
		JOIN users s ON s.id = p.source_user_id
		JOIN mods m ON m.id = p.mod_id
		JOIN users a ON a.id = m.user_id
		ORDER BY p.target_user_id, p.created_at ASC
	`
	err := r.db.Select(&items, query)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mentionRepository) DeleteByIDs(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM pending_mentions WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(r.db.Rebind(query), args...)
	return err
}
