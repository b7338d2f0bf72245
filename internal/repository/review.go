package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

type ReviewRepository interface {
	Upsert(review *model.Review) error
	ByMod(modID string) ([]*model.Review, error)
}

type reviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Upsert keeps one review per user and mod; a second review replaces the first.
func (r *reviewRepository) Upsert(review *model.Review) error {
	query := `
		INSERT INTO mod_reviews (id, user_id, mod_id, rating, title, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, mod_id) DO UPDATE SET
			rating = excluded.rating,
			title = excluded.title,
			message = excluded.message,
			updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query,
		review.ID,
		review.UserID,
		review.ModID,
		review.Rating,
		review.Title,
		review.Message,
		review.CreatedAt,
		review.UpdatedAt,
	)
	return err
}

func (r *reviewRepository) ByMod(modID string) ([]*model.Review, error) {
	type row struct {
		model.Review
		AuthorName     string  `db:"author_name"`
		AuthorSlug     string  `db:"author_slug"`
		AuthorImageURL *string `db:"author_image_url"`
	}

	var rows []row
	query := `
		SELECT rv.*, u.name AS author_name, u.slug AS author_slug, u.image_url AS author_image_url
		FROM mod_reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.mod_id = $1
		ORDER BY rv.updated_at DESC
	`
	err := r.db.Select(&rows, query, modID)
	if err != nil {
		return nil, err
	}

	reviews := make([]*model.Review, len(rows))
	for i := range rows {
		review := rows[i].Review
		review.Author = model.UserSummary{Name: rows[i].AuthorName, Slug: rows[i].AuthorSlug, ImageURL: rows[i].AuthorImageURL}
		reviews[i] = &review
	}
	return reviews, nil
}
