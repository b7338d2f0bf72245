package model

import "time"

// Artifact is a pair of JSON documents saved from the in-game editor under an id the
// client picks. Code and Diagram are stored verbatim.
type Artifact struct {
	ID         string    `db:"id" json:"id"`
	ArtifactID string    `db:"artifact_id" json:"artifactId"`
	UserID     string    `db:"user_id" json:"-"`
	Code       string    `db:"code" json:"code"`
	Diagram    string    `db:"diagram" json:"diagram"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
