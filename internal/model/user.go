package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"-"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Email        string    `db:"email" json:"-"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ImageURL     *string   `db:"image_url" json:"imageUrl"`
	IsTrusted    bool      `db:"is_trusted" json:"isTrusted"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// UserSummary is the public author block embedded in mods and comments.
type UserSummary struct {
	Name     string  `db:"name" json:"name"`
	Slug     string  `db:"slug" json:"slug"`
	ImageURL *string `db:"image_url" json:"imageUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{Name: u.Name, Slug: u.Slug, ImageURL: u.ImageURL}
}

type UserStats struct {
	Mods               int     `json:"mods"`
	Downloads          int     `json:"downloads"`
	DownloadsLastDay   int     `json:"downloadsLastDay"`
	DownloadsLastWeek  int     `json:"downloadsLastWeek"`
	DownloadsLastMonth int     `json:"downloadsLastMonth"`
	Favorites          int     `json:"favorites"`
	Reviews            int     `json:"reviews"`
	AverageRating      float64 `json:"averageRating"`
}
