package model

import "time"

const (
	FileTypeAvatar = "avatar"
	// FileTypeUpload marks a key handed out for a presigned PUT. The object may never arrive.
	FileTypeUpload = "upload"
)

const OwnerTypeUser = "user"

// File is a stored object tracked by the API. Mod archives and gallery images are
// referenced by key from their own rows instead.
type File struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	OwnerType    string    `db:"owner_type"`
	OwnerID      string    `db:"owner_id"`
	Type         string    `db:"type"`
	Filename     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	ContentType  string    `db:"mime_type"`
	Size         int64     `db:"size"`
	Key          string    `db:"storage_path"`
	Public       bool      `db:"public"`
	CreatedAt    time.Time `db:"created_at"`
}
