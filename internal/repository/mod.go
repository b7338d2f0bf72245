package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sotfmods/api/internal/model"
)

var (
	ErrModNotFound     = errors.New("mod not found")
	ErrVersionNotFound = errors.New("mod version not found")
	ErrDuplicateMod    = errors.New("mod already exists")
)

type ModRepository interface {
	ByID(id string) (*model.Mod, error)
	ByModID(modID string) (*model.Mod, error)
	BySlugs(userSlug, modSlug string) (*model.Mod, error)
	NameExists(name string) (bool, error)
	SlugExists(slug string) (bool, error)
	ModIDExists(modID string) (bool, error)

	Publish(mod *model.Mod, version *model.ModVersion, images []*model.ModImage) error
	Release(mod *model.Mod, version *model.ModVersion, validate func(existing []*model.ModVersion) error) error
	UpdateDetails(mod *model.Mod, images []*model.ModImage) error
	SetApproved(id string, approved bool) error
	Delete(id string) error

	Versions(modID string) ([]*model.ModVersion, error)
	LatestVersion(modID string) (*model.ModVersion, error)
	VersionByNumber(modID, version string) (*model.ModVersion, error)
	Images(modID string) ([]*model.ModImage, error)

	List(filter model.ModFilter) ([]*model.ModListItem, int, error)
	Featured(modType string, limit int) ([]*model.ModListItem, error)
	Unapproved() ([]*model.Mod, error)

	RecordDownload(download *model.ModDownload) error
	DownloadTimes(modID string, since time.Time) ([]time.Time, error)
	ReconcileCounters(weekCutoff time.Time) (int64, error)
	Stats(modType string) (*model.SiteStats, error)
	UserStats(userID string, now time.Time) (*model.UserStats, error)
}

type modRepository struct {
	db *sqlx.DB
}

func NewModRepository(db *sqlx.DB) ModRepository {
	return &modRepository{db: db}
}

func (r *modRepository) ByID(id string) (*model.Mod, error) {
	return r.getMod(`SELECT * FROM mods WHERE id = $1`, id)
}

func (r *modRepository) ByModID(modID string) (*model.Mod, error) {
	return r.getMod(`SELECT * FROM mods WHERE mod_id = $1`, modID)
}

func (r *modRepository) BySlugs(userSlug, modSlug string) (*model.Mod, error) {
	query := `SELECT m.* FROM mods m JOIN users u ON u.id = m.user_id WHERE u.slug = $1 AND m.slug = $2`
	return r.getMod(query, userSlug, modSlug)
}

func (r *modRepository) getMod(query string, args ...any) (*model.Mod, error) {
	mod := &model.Mod{}
	err := r.db.Get(mod, query, args...)
	if err == sql.ErrNoRows {
		return nil, ErrModNotFound
	}
	return mod, err
}

func (r *modRepository) NameExists(name string) (bool, error) {
	return r.exists(`SELECT COUNT(*) FROM mods WHERE name = $1`, name)
}

func (r *modRepository) SlugExists(slug string) (bool, error) {
	return r.exists(`SELECT COUNT(*) FROM mods WHERE slug = $1`, slug)
}

func (r *modRepository) ModIDExists(modID string) (bool, error) {
	return r.exists(`SELECT COUNT(*) FROM mods WHERE mod_id = $1`, modID)
}

func (r *modRepository) exists(query string, arg any) (bool, error) {
	var count int
	err := r.db.Get(&count, query, arg)
	return count > 0, err
}

const insertModQuery = `
	INSERT INTO mods (id, mod_id, name, slug, short_description, description, dependencies, type,
		is_approved, is_featured, is_nsfw, category_id, user_id, latest_version, image_url,
		downloads, last_week_downloads, favorites_count, comments_count,
		build_guid, build_share_version, number_of_elements, mod_side, is_multiplayer_compatible, requires_all_players,
		created_at, updated_at, last_released_at)
	VALUES (:id, :mod_id, :name, :slug, :short_description, :description, :dependencies, :type,
		:is_approved, :is_featured, :is_nsfw, :category_id, :user_id, :latest_version, :image_url,
		:downloads, :last_week_downloads, :favorites_count, :comments_count,
		:build_guid, :build_share_version, :number_of_elements, :mod_side, :is_multiplayer_compatible, :requires_all_players,
		:created_at, :updated_at, :last_released_at)
`

const insertVersionQuery = `
	INSERT INTO mod_versions (id, mod_id, version, changelog, download_url, filename, extension, is_latest, created_at)
	VALUES (:id, :mod_id, :version, :changelog, :download_url, :filename, :extension, :is_latest, :created_at)
`

const insertImageQuery = `
	INSERT INTO mod_images (id, mod_id, url, is_primary, is_thumbnail, position, created_at)
	VALUES (:id, :mod_id, :url, :is_primary, :is_thumbnail, :position, :created_at)
`

// Publish writes the mod, its first version and its gallery in one transaction.
func (r *modRepository) Publish(mod *model.Mod, version *model.ModVersion, images []*model.ModImage) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(insertModQuery, mod)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMod
		}
		return fmt.Errorf("failed to insert mod: %w", err)
	}

	_, err = tx.NamedExec(insertVersionQuery, version)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}

	for _, image := range images {
		_, err = tx.NamedExec(insertImageQuery, image)
		if err != nil {
			return fmt.Errorf("failed to insert image: %w", err)
		}
	}

	return tx.Commit()
}

// Release demotes the current latest version, inserts the new one and updates the mod row
// atomically. validate runs inside the transaction against the versions visible to it, so a
// rejected release leaves every row untouched.
func (r *modRepository) Release(mod *model.Mod, version *model.ModVersion, validate func(existing []*model.ModVersion) error) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing []*model.ModVersion
	err = tx.Select(&existing, `SELECT * FROM mod_versions WHERE mod_id = $1`, mod.ID)
	if err != nil {
		return err
	}

	if validate != nil {
		err = validate(existing)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`UPDATE mod_versions SET is_latest = $1 WHERE mod_id = $2`, false, mod.ID)
	if err != nil {
		return fmt.Errorf("failed to demote latest version: %w", err)
	}

	_, err = tx.NamedExec(insertVersionQuery, version)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMod
		}
		return fmt.Errorf("failed to insert version: %w", err)
	}

	query := `
		UPDATE mods
		SET latest_version = $1, dependencies = $2, type = $3, updated_at = $4, last_released_at = $5
		WHERE id = $6
	`
	_, err = tx.Exec(query, mod.LatestVersion, mod.Dependencies, mod.Type, mod.UpdatedAt, mod.LastReleasedAt, mod.ID)
	if err != nil {
		return fmt.Errorf("failed to update mod: %w", err)
	}

	return tx.Commit()
}

// UpdateDetails rewrites the editable columns; a nil images slice keeps the gallery as is.
func (r *modRepository) UpdateDetails(mod *model.Mod, images []*model.ModImage) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE mods
		SET name = $1, slug = $2, description = $3, short_description = $4, is_nsfw = $5, image_url = $6, updated_at = $7
		WHERE id = $8
	`
	_, err = tx.Exec(query, mod.Name, mod.Slug, mod.Description, mod.ShortDescription, mod.IsNSFW, mod.ImageURL, mod.UpdatedAt, mod.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMod
		}
		return fmt.Errorf("failed to update mod: %w", err)
	}

	if images != nil {
		_, err = tx.Exec(`DELETE FROM mod_images WHERE mod_id = $1`, mod.ID)
		if err != nil {
			return fmt.Errorf("failed to clear images: %w", err)
		}
		for _, image := range images {
			_, err = tx.NamedExec(insertImageQuery, image)
			if err != nil {
				return fmt.Errorf("failed to insert image: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (r *modRepository) SetApproved(id string, approved bool) error {
	result, err := r.db.Exec(`UPDATE mods SET is_approved = $1, updated_at = $2 WHERE id = $3`, approved, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrModNotFound
	}
	return nil
}

func (r *modRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM mods WHERE id = $1`, id)
	return err
}

// Versions lists versions newest first with their download counts.
func (r *modRepository) Versions(modID string) ([]*model.ModVersion, error) {
	type versionRow struct {
		model.ModVersion
		DownloadCount int `db:"download_count"`
	}

	var rows []versionRow
	query := `
		SELECT v.*, (SELECT COUNT(*) FROM mod_downloads d WHERE d.mod_version_id = v.id) AS download_count
		FROM mod_versions v
		WHERE v.mod_id = $1
		ORDER BY v.created_at DESC
	`
	err := r.db.Select(&rows, query, modID)
	if err != nil {
		return nil, err
	}

	versions := make([]*model.ModVersion, len(rows))
	for i := range rows {
		v := rows[i].ModVersion
		v.Downloads = rows[i].DownloadCount
		versions[i] = &v
	}
	return versions, nil
}

func (r *modRepository) LatestVersion(modID string) (*model.ModVersion, error) {
	version := &model.ModVersion{}
	err := r.db.Get(version, `SELECT * FROM mod_versions WHERE mod_id = $1 AND is_latest = $2`, modID, true)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	return version, err
}

func (r *modRepository) VersionByNumber(modID, version string) (*model.ModVersion, error) {
	v := &model.ModVersion{}
	err := r.db.Get(v, `SELECT * FROM mod_versions WHERE mod_id = $1 AND version = $2`, modID, version)
	if err == sql.ErrNoRows {
		return nil, ErrVersionNotFound
	}
	return v, err
}

func (r *modRepository) Images(modID string) ([]*model.ModImage, error) {
	images := []*model.ModImage{}
	err := r.db.Select(&images, `SELECT * FROM mod_images WHERE mod_id = $1 ORDER BY position ASC`, modID)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// listRow is a mod joined with its author and category.
type listRow struct {
	model.Mod
	AuthorName     string  `db:"author_name"`
	AuthorSlug     string  `db:"author_slug"`
	AuthorImageURL *string `db:"author_image_url"`
	CategoryName   *string `db:"category_name"`
	CategorySlug   *string `db:"category_slug"`
	CategoryType   *string `db:"category_type"`
}

const listSelect = `
	SELECT m.*, u.name AS author_name, u.slug AS author_slug, u.image_url AS author_image_url,
		c.name AS category_name, c.slug AS category_slug, c.type AS category_type
	FROM mods m
	JOIN users u ON u.id = m.user_id
	LEFT JOIN categories c ON c.id = m.category_id
`

// queryArgs numbers positional placeholders while a query is assembled.
type queryArgs struct {
	values []any
}

func (a *queryArgs) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

func (r *modRepository) List(filter model.ModFilter) ([]*model.ModListItem, int, error) {
	var where []string
	var a queryArgs

	modType := filter.Type
	if modType == "" {
		modType = model.ModTypeMod
	}
	where = append(where, "m.type = "+a.add(modType))
	where = append(where, "m.is_approved = "+a.add(filter.Approved))
	where = append(where, "m.is_nsfw = "+a.add(filter.NSFW))

	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, fmt.Sprintf("(LOWER(m.name) LIKE %s OR LOWER(m.description) LIKE %s OR LOWER(u.name) LIKE %s)",
			a.add(like), a.add(like), a.add(like)))
	}
	if filter.UserSlug != "" {
		where = append(where, "u.slug = "+a.add(filter.UserSlug))
	}
	if filter.UserSlugFavorites != "" {
		where = append(where, `EXISTS (SELECT 1 FROM mod_favorites f JOIN users fu ON fu.id = f.user_id
			WHERE f.mod_id = m.id AND fu.slug = `+a.add(filter.UserSlugFavorites)+`)`)
	}
	if filter.Category != "" {
		where = append(where, "c.slug = "+a.add(filter.Category))
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")

	var orderBy string
	switch filter.OrderBy {
	case "popular":
		orderBy = " ORDER BY m.favorites_count DESC, m.last_released_at DESC"
	case "unpopular":
		orderBy = " ORDER BY m.favorites_count ASC, m.last_released_at DESC"
	case "oldest":
		orderBy = " ORDER BY m.last_released_at ASC"
	default: // newest
		orderBy = " ORDER BY m.last_released_at DESC"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM mods m JOIN users u ON u.id = m.user_id LEFT JOIN categories c ON c.id = m.category_id` + whereClause
	err := r.db.Get(&total, countQuery, a.values...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count mods: %w", err)
	}

	limit := filter.Limit
	page := filter.Page
	pageQuery := listSelect + whereClause + orderBy + " LIMIT " + a.add(limit) + " OFFSET " + a.add((page-1)*limit)

	items, err := r.selectListItems(pageQuery, a.values...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Featured picks approved, safe-for-work mods by last week's downloads.
func (r *modRepository) Featured(modType string, limit int) ([]*model.ModListItem, error) {
	query := listSelect + `
		WHERE m.type = $1 AND m.is_approved = $2 AND m.is_nsfw = $3
		ORDER BY m.last_week_downloads DESC, m.downloads DESC
		LIMIT $4
	`
	return r.selectListItems(query, modType, true, false, limit)
}

func (r *modRepository) selectListItems(query string, args ...any) ([]*model.ModListItem, error) {
	var rows []listRow
	err := r.db.Select(&rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list mods: %w", err)
	}

	items := make([]*model.ModListItem, len(rows))
	ids := make([]string, len(rows))
	for i := range rows {
		row := rows[i]
		mod := row.Mod
		item := &model.ModListItem{
			Mod:    &mod,
			Author: model.UserSummary{Name: row.AuthorName, Slug: row.AuthorSlug, ImageURL: row.AuthorImageURL},
			Images: []*model.ModImage{},
		}
		if row.CategoryName != nil && mod.CategoryID != nil {
			item.Category = &model.Category{ID: *mod.CategoryID, Name: *row.CategoryName, Slug: deref(row.CategorySlug), Type: deref(row.CategoryType)}
		}
		items[i] = item
		ids[i] = mod.ID
	}

	if len(ids) == 0 {
		return items, nil
	}

	inQuery, inArgs, err := sqlx.In(`SELECT * FROM mod_images WHERE mod_id IN (?) ORDER BY position ASC`, ids)
	if err != nil {
		return nil, err
	}
	var images []*model.ModImage
	err = r.db.Select(&images, r.db.Rebind(inQuery), inArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	byMod := make(map[string]*model.ModListItem, len(items))
	for _, item := range items {
		byMod[item.ID] = item
	}
	for _, image := range images {
		if item, ok := byMod[image.ModID]; ok {
			item.Images = append(item.Images, image)
		}
	}

	return items, nil
}

func (r *modRepository) Unapproved() ([]*model.Mod, error) {
	var mods []*model.Mod
	err := r.db.Select(&mods, `SELECT * FROM mods WHERE is_approved = $1 ORDER BY created_at ASC`, false)
	return mods, err
}

func (r *modRepository) RecordDownload(download *model.ModDownload) error {
	query := `INSERT INTO mod_downloads (id, mod_version_id, ip, user_agent, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Exec(query, download.ID, download.ModVersionID, download.IP, download.UserAgent, download.CreatedAt)
	return err
}

// DownloadTimes returns the timestamps of every download of a mod since the cutoff, oldest first.
func (r *modRepository) DownloadTimes(modID string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	query := `
		SELECT d.created_at FROM mod_downloads d
		JOIN mod_versions v ON v.id = d.mod_version_id
		WHERE v.mod_id = $1 AND d.created_at >= $2
		ORDER BY d.created_at ASC
	`
	err := r.db.Select(&times, query, modID, since.UTC())
	if err != nil {
		return nil, err
	}
	return times, nil
}

// ReconcileCounters recomputes every denormalized counter from the source tables. Running it
// twice without new events yields the same values.
func (r *modRepository) ReconcileCounters(weekCutoff time.Time) (int64, error) {
	query := `
		UPDATE mods SET
			downloads = (
				SELECT COUNT(*) FROM mod_downloads d
				JOIN mod_versions v ON v.id = d.mod_version_id
				WHERE v.mod_id = mods.id
			),
			last_week_downloads = (
				SELECT COUNT(*) FROM mod_downloads d
				JOIN mod_versions v ON v.id = d.mod_version_id
				WHERE v.mod_id = mods.id AND d.created_at > $1
			),
			favorites_count = (SELECT COUNT(*) FROM mod_favorites f WHERE f.mod_id = mods.id),
			comments_count = (SELECT COUNT(*) FROM comments c WHERE c.mod_id = mods.id)
	`
	result, err := r.db.Exec(query, weekCutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *modRepository) Stats(modType string) (*model.SiteStats, error) {
	stats := &model.SiteStats{}

	err := r.db.Get(&stats.Users, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT COUNT(*), COALESCE(SUM(downloads), 0), COUNT(DISTINCT user_id)
		FROM mods WHERE type = $1 AND is_approved = $2
	`
	err = r.db.QueryRowx(query, modType, true).Scan(&stats.Mods, &stats.Downloads, &stats.Developers)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *modRepository) UserStats(userID string, now time.Time) (*model.UserStats, error) {
	stats := &model.UserStats{}

	err := r.db.Get(&stats.Mods, `SELECT COUNT(*) FROM mods WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	downloadsQuery := `
		SELECT COUNT(*) FROM mod_downloads d
		JOIN mod_versions v ON v.id = d.mod_version_id
		JOIN mods m ON m.id = v.mod_id
		WHERE m.user_id = $1 AND d.created_at >= $2
	`
	windows := []struct {
		dest  *int
		since time.Time
	}{
		{&stats.Downloads, time.Time{}},
		{&stats.DownloadsLastDay, now.AddDate(0, 0, -1)},
		{&stats.DownloadsLastWeek, now.AddDate(0, 0, -7)},
		{&stats.DownloadsLastMonth, now.AddDate(0, 0, -30)},
	}
	for _, w := range windows {
		err = r.db.Get(w.dest, downloadsQuery, userID, w.since.UTC())
		if err != nil {
			return nil, err
		}
	}

	err = r.db.Get(&stats.Favorites, `
		SELECT COUNT(*) FROM mod_favorites f JOIN mods m ON m.id = f.mod_id WHERE m.user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowx(`
		SELECT COUNT(*), COALESCE(AVG(rv.rating), 0) FROM mod_reviews rv JOIN mods m ON m.id = rv.mod_id WHERE m.user_id = $1
	`, userID).Scan(&stats.Reviews, &stats.AverageRating)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
