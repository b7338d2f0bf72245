package model

import (
	"time"
)

const (
	ModTypeMod     = "Mod"
	ModTypeLibrary = "Library"
	ModTypeBuild   = "Build"
)

type Mod struct {
	ID                      string    `db:"id" json:"id"`
	ModID                   string    `db:"mod_id" json:"mod_id"` // Manifest id, stable across releases
	Name                    string    `db:"name" json:"name"`
	Slug                    string    `db:"slug" json:"slug"`
	ShortDescription        string    `db:"short_description" json:"shortDescription"`
	Description             string    `db:"description" json:"description"`
	Dependencies            string    `db:"dependencies" json:"dependencies"`
	Type                    string    `db:"type" json:"type"`
	IsApproved              bool      `db:"is_approved" json:"isApproved"`
	IsFeatured              bool      `db:"is_featured" json:"isFeatured"`
	IsNSFW                  bool      `db:"is_nsfw" json:"isNSFW"`
	CategoryID              *int64    `db:"category_id" json:"categoryId"`
	UserID                  string    `db:"user_id" json:"-"`
	LatestVersion           string    `db:"latest_version" json:"latestVersion"`
	ImageURL                string    `db:"image_url" json:"imageUrl"`
	Downloads               int       `db:"downloads" json:"downloads"`
	LastWeekDownloads       int       `db:"last_week_downloads" json:"lastWeekDownloads"`
	FavoritesCount          int       `db:"favorites_count" json:"favoritesCount"`
	CommentsCount           int       `db:"comments_count" json:"commentsCount"`
	BuildGUID               *string   `db:"build_guid" json:"buildGuid,omitempty"`
	BuildShareVersion       *string   `db:"build_share_version" json:"buildShareVersion,omitempty"`
	NumberOfElements        *int64    `db:"number_of_elements" json:"numberOfElements,omitempty"`
	ModSide                 *string   `db:"mod_side" json:"modSide,omitempty"`
	IsMultiplayerCompatible bool      `db:"is_multiplayer_compatible" json:"isMultiplayerCompatible"`
	RequiresAllPlayers      bool      `db:"requires_all_players" json:"requiresAllPlayers"`
	CreatedAt               time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time `db:"updated_at" json:"updatedAt"`
	LastReleasedAt          time.Time `db:"last_released_at" json:"lastReleasedAt"`
}

type ModVersion struct {
	ID          string    `db:"id" json:"id"`
	ModID       string    `db:"mod_id" json:"-"`
	Version     string    `db:"version" json:"version"`
	Changelog   string    `db:"changelog" json:"changelog"`
	DownloadURL string    `db:"download_url" json:"downloadUrl"`
	Filename    string    `db:"filename" json:"filename"`
	Extension   string    `db:"extension" json:"extension"`
	IsLatest    bool      `db:"is_latest" json:"isLatest"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	// Computed fields (not in database)
	Downloads int `db:"-" json:"downloads"`
}

type ModImage struct {
	ID          string    `db:"id" json:"-"`
	ModID       string    `db:"mod_id" json:"-"`
	URL         string    `db:"url" json:"url"`
	IsPrimary   bool      `db:"is_primary" json:"isPrimary"`
	IsThumbnail bool      `db:"is_thumbnail" json:"isThumbnail"`
	Position    int       `db:"position" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

type ModDownload struct {
	ID           string    `db:"id"`
	ModVersionID string    `db:"mod_version_id"`
	IP           string    `db:"ip"`
	UserAgent    string    `db:"user_agent"`
	CreatedAt    time.Time `db:"created_at"`
}

type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
	Type string `db:"type" json:"type"`
}

// ModDetails is a mod with everything the detail page renders.
type ModDetails struct {
	*Mod
	DescriptionHTML string        `json:"description_html"`
	Author          UserSummary   `json:"user"`
	Category        *Category     `json:"category"`
	Versions        []*ModVersion `json:"versions"`
	Images          []*ModImage   `json:"images"`
	DependencyList  []string      `json:"dependencyList"`
	IsFavorite      bool          `json:"isFavorite"`
}

// ModListItem is a row of the mod listing.
type ModListItem struct {
	*Mod
	Author   UserSummary `json:"user"`
	Category *Category   `json:"category"`
	Images   []*ModImage `json:"images"`
}

type ModFilter struct {
	Type              string
	Search            string
	UserSlug          string
	UserSlugFavorites string
	Approved          bool
	NSFW              bool
	Category          string
	OrderBy           string
	Page              int
	Limit             int
}

type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	Pages    int `json:"pages"`
	NextPage int `json:"next_page"`
	PrevPage int `json:"prev_page"`
}

// NewPageMeta computes pagination links; next is clamped to the last page and prev to 1.
func NewPageMeta(total, page, limit int) PageMeta {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	next := page + 1
	if next > pages {
		next = pages
	}
	prev := page - 1
	if prev < 1 {
		prev = 1
	}
	return PageMeta{Total: total, Page: page, Limit: limit, Pages: pages, NextPage: next, PrevPage: prev}
}

type DailyDownloads struct {
	Date      string `json:"date"`
	Downloads int    `json:"count"`
}

type SiteStats struct {
	Users      int `json:"users"`
	Mods       int `json:"mods"`
	Downloads  int `json:"downloads"`
	Developers int `json:"developers"`
}
