package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/db"
	"github.com/sotfmods/api/internal/model"
)

type KelvinRepository interface {
	History(chatID string) ([]*model.KelvinMessage, error)
	Append(messages ...*model.KelvinMessage) error
	Trim(chatID string, keep int) (int64, error)
	Clear(chatID string) (int64, error)
	ChatIDs() ([]string, error)
}

type kelvinRepository struct {
	db *sqlx.DB
}

func NewKelvinRepository(db *sqlx.DB) KelvinRepository {
	return &kelvinRepository{db: db}
}

// History returns a chat oldest first.
func (r *kelvinRepository) History(chatID string) ([]*model.KelvinMessage, error) {
	messages := []*model.KelvinMessage{}
	err := r.db.Select(&messages, `SELECT * FROM kelvin_messages WHERE chat_id = $1 ORDER BY created_at ASC, id ASC`, chatID)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *kelvinRepository) Append(messages ...*model.KelvinMessage) error {
	query := `INSERT INTO kelvin_messages (id, chat_id, role, prompt, message, message_id, created_at)
	          VALUES (:id, :chat_id, :role, :prompt, :message, :message_id, :created_at)`
	return db.Transact(r.db, func(tx *sqlx.Tx) error {
		for _, m := range messages {
			if _, err := tx.NamedExec(query, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Trim deletes all but the newest keep messages of a chat.
func (r *kelvinRepository) Trim(chatID string, keep int) (int64, error) {
	query := `
		DELETE FROM kelvin_messages
		WHERE chat_id = $1 AND id NOT IN (
			SELECT id FROM kelvin_messages WHERE chat_id = $2 ORDER BY created_at DESC, id DESC LIMIT $3
		)
	`
	result, err := r.db.Exec(query, chatID, chatID, keep)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *kelvinRepository) Clear(chatID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM kelvin_messages WHERE chat_id = $1`, chatID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *kelvinRepository) ChatIDs() ([]string, error) {
	ids := []string{}
	err := r.db.Select(&ids, `SELECT DISTINCT chat_id FROM kelvin_messages ORDER BY chat_id ASC`)
	return ids, err
}
