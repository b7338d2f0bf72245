package repository

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

type FavoriteRepository interface {
	IsFavorite(userID, modID string) (bool, error)
	Set(userID, modID string, favorite bool) (bool, error)
	Toggle(userID, modID string) (bool, error)
	ByUser(userID string) ([]*model.ModListItem, error)
	FavoriteModIDs(userID string) ([]string, error)
}

type favoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) IsFavorite(userID, modID string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM mod_favorites WHERE user_id = $1 AND mod_id = $2`, userID, modID)
	return count > 0, err
}

// Toggle flips the favorite and returns the new state.
func (r *favoriteRepository) Toggle(userID, modID string) (bool, error) {
	return r.apply(userID, modID, func(current bool) bool { return !current })
}

// Set forces the favorite to the given state and returns it.
func (r *favoriteRepository) Set(userID, modID string, favorite bool) (bool, error) {
	return r.apply(userID, modID, func(bool) bool { return favorite })
}

// apply changes the favorite row and the mod's favorites_count in the same transaction.
func (r *favoriteRepository) apply(userID, modID string, next func(current bool) bool) (bool, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var count int
	err = tx.Get(&count, `SELECT COUNT(*) FROM mod_favorites WHERE user_id = $1 AND mod_id = $2`, userID, modID)
	if err != nil {
		return false, err
	}
	current := count > 0
	want := next(current)

	switch {
	case want && !current:
		_, err = tx.Exec(`INSERT INTO mod_favorites (user_id, mod_id, created_at) VALUES ($1, $2, $3)`, userID, modID, time.Now().UTC())
		if err == nil {
			_, err = tx.Exec(`UPDATE mods SET favorites_count = favorites_count + 1 WHERE id = $1`, modID)
		}
	case !want && current:
		_, err = tx.Exec(`DELETE FROM mod_favorites WHERE user_id = $1 AND mod_id = $2`, userID, modID)
		if err == nil {
			_, err = tx.Exec(`UPDATE mods SET favorites_count = favorites_count - 1 WHERE id = $1 AND favorites_count > 0`, modID)
		}
	}
	if err != nil {
		return false, err
	}

	return want, tx.Commit()
}

// ByUser lists the user's favorite mods, newest favorite first.
func (r *favoriteRepository) ByUser(userID string) ([]*model.ModListItem, error) {
	type row struct {
		model.Mod
		AuthorName     string  `db:"author_name"`
		AuthorSlug     string  `db:"author_slug"`
		AuthorImageURL *string `db:"author_image_url"`
	}

	var rows []row
	query := `
		SELECT m.*, u.name AS author_name, u.slug AS author_slug, u.image_url AS author_image_url
		FROM mod_favorites f
		JOIN mods m ON m.id = f.mod_id
		JOIN users u ON u.id = m.user_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	err := r.db.Select(&rows, query, userID)
	if err != nil {
		return nil, err
	}

	items := make([]*model.ModListItem, len(rows))
	for i := range rows {
		mod := rows[i].Mod
		items[i] = &model.ModListItem{
			Mod:    &mod,
			Author: model.UserSummary{Name: rows[i].AuthorName, Slug: rows[i].AuthorSlug, ImageURL: rows[i].AuthorImageURL},
			Images: []*model.ModImage{},
		}
	}
	return items, nil
}

// FavoriteModIDs returns the manifest ids of the user's favorites.
func (r *favoriteRepository) FavoriteModIDs(userID string) ([]string, error) {
	ids := []string{}
	query := `SELECT m.mod_id FROM mod_favorites f JOIN mods m ON m.id = f.mod_id WHERE f.user_id = $1 ORDER BY f.created_at DESC`
	err := r.db.Select(&ids, query, userID)
	return ids, err
}
