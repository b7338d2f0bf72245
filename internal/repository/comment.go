package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
)

type CommentRepository interface {
	Create(comment *model.Comment, mentions []*model.PendingMention) error
	ByID(id string) (*model.Comment, error)
	ByMod(modID string) ([]*model.Comment, error)
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment, bumps the mod's comments_count and queues the mentions together.
func (r *commentRepository) Create(comment *model.Comment, mentions []*model.PendingMention) error {
	return db.Transact(r.db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO comments (id, mod_id, user_id, reply_id, message, ip, is_hidden, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			comment.ID, comment.ModID, comment.UserID, comment.ReplyID,
			comment.Message, comment.IP, comment.IsHidden, comment.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}

		_, err = tx.Exec(`UPDATE mods SET comments_count = comments_count + 1 WHERE id = $1`, comment.ModID)
		if err != nil {
			return fmt.Errorf("failed to update comments count: %w", err)
		}

		for _, m := range mentions {
			_, err = tx.Exec(`
				INSERT INTO pending_mentions (id, target_user_id, source_user_id, mod_id, comment_id, type, message, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				m.ID, m.TargetUserID, m.SourceUserID, m.ModID, m.CommentID, m.Type, m.Message, m.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to queue mention: %w", err)
			}
		}
		return nil
	})
}

func (r *commentRepository) ByID(id string) (*model.Comment, error) {
	comment := &model.Comment{}
	err := r.db.Get(comment, `SELECT * FROM comments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrCommentNotFound
	}
	return comment, err
}

// ByMod returns top-level comments newest first, each with its replies oldest first.
func (r *commentRepository) ByMod(modID string) ([]*model.Comment, error) {
	type row struct {
		model.Comment
		AuthorName     string  `db:"author_name"`
		AuthorSlug     string  `db:"author_slug"`
		AuthorImageURL *string `db:"author_image_url"`
	}

	var rows []row
	query := `
		SELECT c.*, u.name AS author_name, u.slug AS author_slug, u.image_url AS author_image_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.mod_id = $1
		ORDER BY c.created_at ASC
	`
	err := r.db.Select(&rows, query, modID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.Comment, len(rows))
	var roots []*model.Comment
	for i := range rows {
		c := rows[i].Comment
		c.Author = model.UserSummary{Name: rows[i].AuthorName, Slug: rows[i].AuthorSlug, ImageURL: rows[i].AuthorImageURL}
		byID[c.ID] = &c
		if !c.IsReply() {
			roots = append(roots, &c)
		}
	}
	for i := range rows {
		c := byID[rows[i].ID]
		if !c.IsReply() {
			continue
		}
		if parent, ok := byID[*c.ReplyID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}

	// newest thread first
	threads := make([]*model.Comment, len(roots))
	for i, c := range roots {
		threads[len(roots)-1-i] = c
	}
	return threads, nil
}
