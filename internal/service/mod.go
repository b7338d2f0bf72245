package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/cache"
	"github.com/sotfmods/api/internal/manifest"
	"github.com/sotfmods/api/internal/markdown"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/release"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/slug"
	"github.com/sotfmods/api/internal/validation"
	"golang.org/x/sync/errgroup"
)

const (
	maxGalleryImages = 5
	defaultPageLimit = 20
	maxPageLimit     = 100
	firstChangelog   = "First release"
)

// UploadLimits caps the size of fetched uploads. Trusted users get the larger mod limit.
type UploadLimits struct {
	ModFile        int64
	TrustedModFile int64
	BuildFile      int64
}

type PublishInput struct {
	Name             string   `json:"name"`
	ShortDescription string   `json:"shortDescription"`
	Description      string   `json:"description"`
	IsNSFW           bool     `json:"isNSFW"`
	CategoryID       *int64   `json:"category_id"`
	ModFileKey       string   `json:"modFileKey"`
	ThumbnailKey     string   `json:"thumbnailKey"`
	ImageKeys        []string `json:"imageKeys"`
}

type ReleaseInput struct {
	Version    string `json:"version"`
	Changelog  string `json:"changelog"`
	ModFileKey string `json:"modFileKey"`
}

// UpdateDetailsInput only changes the fields that are set
type UpdateDetailsInput struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	ShortDescription *string   `json:"shortDescription"`
	IsNSFW           *bool     `json:"isNSFW"`
	ThumbnailKey     *string   `json:"thumbnailKey"`
	ImageKeys        *[]string `json:"imageKeys"`
}

type VersionCheck struct {
	LatestVersion       string `json:"latestVersion"`
	Changelog           string `json:"changelog"`
	NewVersionAvailable bool   `json:"newVersionAvailable"`
	Message             string `json:"message"`
}

// ModDownload is an open object stream plus the headers to serve it with
type ModDownload struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

type ModService struct {
	modRepository      repository.ModRepository
	userRepository     repository.UserRepository
	categoryRepository repository.CategoryRepository
	favoriteRepository repository.FavoriteRepository
	fileService        *FileService
	markdown           *markdown.Parser
	featured           *cache.TTL[[]*model.ModListItem]
	limits             UploadLimits
}

func NewModService(
	modRepository repository.ModRepository,
	userRepository repository.UserRepository,
	categoryRepository repository.CategoryRepository,
	favoriteRepository repository.FavoriteRepository,
	fileService *FileService,
	markdownParser *markdown.Parser,
	featuredTTL time.Duration,
	limits UploadLimits,
) *ModService {
	return &ModService{
		modRepository:      modRepository,
		userRepository:     userRepository,
		categoryRepository: categoryRepository,
		favoriteRepository: favoriteRepository,
		fileService:        fileService,
		markdown:           markdownParser,
		featured:           cache.New[[]*model.ModListItem](featuredTTL),
		limits:             limits,
	}
}

func validateMetadata(errs *apperr.Collector, name, shortDescription, description string) {
	if err := validation.ValidateModName(name); err != nil {
		errs.Add("name", err.Error())
	}
	if err := validation.ValidateModDescription(description); err != nil {
		errs.Add("description", err.Error())
	}
	if err := validation.ValidateModShortDescription(shortDescription); err != nil {
		errs.Add("shortDescription", err.Error())
	}
}

func validateGallery(errs *apperr.Collector, imageKeys []string) {
	if len(imageKeys) > maxGalleryImages {
		errs.Add("imageKeys", fmt.Sprintf("At most %d images are allowed.", maxGalleryImages))
		return
	}
	for _, key := range imageKeys {
		if err := validation.ValidateImageKey(key); err != nil {
			errs.Add("imageKeys", err.Error())
			return
		}
	}
}

func validateManifest(m *manifest.Manifest) error {
	var errs apperr.Collector
	switch {
	case strings.TrimSpace(m.ID) == "":
		errs.Add("modFile", "Mod id is missing in manifest.json")
	case strings.IndexFunc(m.ID, unicode.IsSpace) >= 0:
		errs.Add("modFile", "Mod id cannot contain spaces in manifest.json")
	}
	if m.Type != model.ModTypeMod && m.Type != model.ModTypeLibrary {
		errs.Add("modFile", "Invalid mod type provided in manifest.json, must be Mod or Library")
	}
	if !release.Valid(m.Version) {
		errs.Add("modFile", "Invalid mod version provided in manifest.json")
	}
	return errs.Err()
}

// checkModFileKey accepts only keys the caller was handed by PresignUpload.
func (s *ModService) checkModFileKey(user *model.User, key string) error {
	if err := validation.ValidateKey(key); err != nil {
		return apperr.Invalid("modFileKey", err.Error())
	}
	return s.fileService.CheckUpload(user.ID, "modFileKey", key)
}

// readArchive fetches the uploaded zip and parses its manifest.
func (s *ModService) readArchive(ctx context.Context, user *model.User, key string) (*manifest.Manifest, error) {
	if !strings.EqualFold(path.Ext(key), ".zip") {
		return nil, apperr.Invalid("modFile", "Mod file must be a zip file.")
	}

	limit := s.limits.ModFile
	if user.IsTrusted {
		limit = s.limits.TrustedModFile
	}

	data, err := s.fileService.Fetch(ctx, "modFileKey", key, limit)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Read(data)
	if err != nil {
		return nil, apperr.InvalidCause("modFile", "manifest.json is missing or invalid.", err)
	}
	return m, nil
}

// checkUnique looks up name, slug and id concurrently and reports the first conflict,
// name before slug before id. noun is "mod" or "build".
func (s *ModService) checkUnique(noun, name, modSlug, modID string) error {
	var nameTaken, slugTaken, idTaken bool
	var g errgroup.Group
	g.Go(func() (err error) {
		nameTaken, err = s.modRepository.NameExists(name)
		return err
	})
	g.Go(func() (err error) {
		slugTaken, err = s.modRepository.SlugExists(modSlug)
		return err
	})
	g.Go(func() (err error) {
		idTaken, err = s.modRepository.ModIDExists(modID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to check uniqueness: %w", err)
	}

	switch {
	case nameTaken:
		return apperr.Invalid("name", fmt.Sprintf("A %s with this name already exists.", noun))
	case slugTaken:
		return apperr.Invalid("name", fmt.Sprintf("A %s with a similar name already exists.", noun))
	case idTaken:
		return apperr.Invalid("mod_id", fmt.Sprintf("A %s with this id already exists.", noun))
	}
	return nil
}

func (s *ModService) galleryRows(modID string, thumbnailKey string, imageKeys []string, now time.Time) []*model.ModImage {
	images := make([]*model.ModImage, 0, len(imageKeys)+1)
	images = append(images, &model.ModImage{
		ID:          uuid.New().String(),
		ModID:       modID,
		URL:         s.fileService.PublicURL(thumbnailKey),
		IsThumbnail: true,
		CreatedAt:   now,
	})
	for i, key := range imageKeys {
		images = append(images, &model.ModImage{
			ID:        uuid.New().String(),
			ModID:     modID,
			URL:       s.fileService.PublicURL(key),
			IsPrimary: i == 0,
			Position:  i + 1,
			CreatedAt: now,
		})
	}
	return images
}

// Publish creates an unapproved mod with its first version. Nothing is written unless
// every check passes.
func (s *ModService) Publish(ctx context.Context, user *model.User, in PublishInput) (*model.Mod, error) {
	in.Name = strings.TrimSpace(in.Name)

	var errs apperr.Collector
	validateMetadata(&errs, in.Name, in.ShortDescription, in.Description)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.checkModFileKey(user, in.ModFileKey); err != nil && !errs.Merge(err) {
		return nil, err
	}
	if err := validation.ValidateImageKey(in.ThumbnailKey); err != nil {
		errs.Add("thumbnailKey", err.Error())
	}
	validateGallery(&errs, in.ImageKeys)
	if in.CategoryID != nil {
		_, err := s.categoryRepository.ByID(*in.CategoryID)
		if errors.Is(err, repository.ErrCategoryNotFound) {
			errs.Add("category_id", "Category not found.")
		} else if err != nil {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	m, err := s.readArchive(ctx, user, in.ModFileKey)
	if err != nil {
		return nil, err
	}
	if err := validateManifest(m); err != nil {
		return nil, err
	}

	modSlug := slug.Make(in.Name)
	if err := s.checkUnique("mod", in.Name, modSlug, m.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mod := &model.Mod{
		ID:               uuid.New().String(),
		ModID:            m.ID,
		Name:             in.Name,
		Slug:             modSlug,
		ShortDescription: strings.TrimSpace(in.ShortDescription),
		Description:      strings.TrimSpace(in.Description),
		Dependencies:     string(m.Dependencies),
		Type:             m.Type,
		IsNSFW:           in.IsNSFW,
		CategoryID:       in.CategoryID,
		UserID:           user.ID,
		LatestVersion:    release.Normalize(m.Version),
		ImageURL:         s.fileService.PublicURL(in.ThumbnailKey),
		CreatedAt:        now,
		UpdatedAt:        now,
		LastReleasedAt:   now,
	}
	version := &model.ModVersion{
		ID:          uuid.New().String(),
		ModID:       mod.ID,
		Version:     release.Normalize(m.Version),
		Changelog:   firstChangelog,
		DownloadURL: s.fileService.PublicURL(in.ModFileKey),
		Filename:    in.ModFileKey,
		Extension:   "zip",
		IsLatest:    true,
		CreatedAt:   now,
	}

	err = s.modRepository.Publish(mod, version, s.galleryRows(mod.ID, in.ThumbnailKey, in.ImageKeys, now))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMod) {
			return nil, apperr.Invalid("name", "Mod already exists. Try a different mod name and manifest.json")
		}
		return nil, fmt.Errorf("failed to publish mod: %w", err)
	}

	slog.Info("mod published", "mod_id", mod.ModID, "version", version.Version, "user_id", user.ID)
	return mod, nil
}

// ownedMod loads a mod by manifest id and checks the caller owns it.
func (s *ModService) ownedMod(user *model.User, modID string) (*model.Mod, error) {
	mod, err := s.getMod(modID)
	if err != nil {
		return nil, err
	}
	if mod.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}
	return mod, nil
}

func (s *ModService) getMod(modID string) (*model.Mod, error) {
	mod, err := s.modRepository.ByModID(modID)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mod: %w", err)
	}
	return mod, nil
}

func versionError(err error) error {
	switch {
	case errors.Is(err, release.ErrInvalidVersion):
		return apperr.InvalidCause("version", "Invalid mod version provided.", err)
	case errors.Is(err, release.ErrDuplicateVersion):
		return apperr.InvalidCause("version", "Version already exists.", err)
	case errors.Is(err, release.ErrVersionNotAdvancing):
		return apperr.InvalidCause("version", "Version must be greater than latest version.", err)
	}
	return err
}

// Release adds a new latest version to a mod owned by user.
func (s *ModService) Release(ctx context.Context, user *model.User, modID string, in ReleaseInput) (*model.ModVersion, error) {
	mod, err := s.ownedMod(user, modID)
	if err != nil {
		return nil, err
	}
	if mod.Type == model.ModTypeBuild {
		return nil, apperr.Invalid("modFile", "Builds cannot receive mod releases.")
	}

	var errs apperr.Collector
	if err := validation.ValidateChangelog(in.Changelog); err != nil {
		errs.Add("changelog", err.Error())
	}
	if err := s.checkModFileKey(user, in.ModFileKey); err != nil && !errs.Merge(err) {
		return nil, err
	}
	proposed := strings.TrimSpace(in.Version)
	if proposed != "" && !release.Valid(proposed) {
		errs.Merge(versionError(release.ErrInvalidVersion))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	m, err := s.readArchive(ctx, user, in.ModFileKey)
	if err != nil {
		return nil, err
	}
	if err := validateManifest(m); err != nil {
		return nil, err
	}
	if m.ID != mod.ModID {
		return nil, apperr.Invalid("modFile", "Mod id in manifest.json does not match this mod.")
	}
	if proposed == "" {
		proposed = m.Version
	} else if release.Compare(proposed, m.Version) != 0 {
		return nil, apperr.Invalid("version", "Version does not match the version in manifest.json.")
	}
	proposed = release.Normalize(proposed)

	now := time.Now().UTC()
	mod.LatestVersion = proposed
	mod.Dependencies = string(m.Dependencies)
	mod.Type = m.Type
	mod.UpdatedAt = now
	mod.LastReleasedAt = now

	version := &model.ModVersion{
		ID:          uuid.New().String(),
		ModID:       mod.ID,
		Version:     proposed,
		Changelog:   strings.TrimSpace(in.Changelog),
		DownloadURL: s.fileService.PublicURL(in.ModFileKey),
		Filename:    in.ModFileKey,
		Extension:   "zip",
		IsLatest:    true,
		CreatedAt:   now,
	}

	err = s.modRepository.Release(mod, version, func(existing []*model.ModVersion) error {
		return versionError(release.Validate(proposed, existing))
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMod) {
			return nil, versionError(release.ErrDuplicateVersion)
		}
		if apperr.Fields(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to release version: %w", err)
	}

	slog.Info("mod version released", "mod_id", mod.ModID, "version", proposed, "user_id", user.ID)
	return version, nil
}

// UpdateDetails edits the descriptive fields of an owned mod. The slug is kept so
// existing links stay valid.
func (s *ModService) UpdateDetails(ctx context.Context, user *model.User, modID string, in UpdateDetailsInput) (*model.Mod, error) {
	mod, err := s.ownedMod(user, modID)
	if err != nil {
		return nil, err
	}

	var errs apperr.Collector
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validation.ValidateModName(name); err != nil {
			errs.Add("name", err.Error())
		} else if name != mod.Name {
			taken, err := s.modRepository.NameExists(name)
			if err != nil {
				return nil, fmt.Errorf("failed to check name: %w", err)
			}
			if taken {
				errs.Add("name", "A mod with this name already exists.")
			}
		}
		mod.Name = name
	}
	if in.Description != nil {
		if err := validation.ValidateModDescription(*in.Description); err != nil {
			errs.Add("description", err.Error())
		}
		mod.Description = strings.TrimSpace(*in.Description)
	}
	if in.ShortDescription != nil {
		if err := validation.ValidateModShortDescription(*in.ShortDescription); err != nil {
			errs.Add("shortDescription", err.Error())
		}
		mod.ShortDescription = strings.TrimSpace(*in.ShortDescription)
	}
	if in.IsNSFW != nil {
		mod.IsNSFW = *in.IsNSFW
	}
	if in.ThumbnailKey != nil {
		if err := validation.ValidateImageKey(*in.ThumbnailKey); err != nil {
			errs.Add("thumbnailKey", err.Error())
		}
	}
	if in.ImageKeys != nil {
		validateGallery(&errs, *in.ImageKeys)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var images []*model.ModImage
	if in.ThumbnailKey != nil || in.ImageKeys != nil {
		images, err = s.mergeGallery(mod, in.ThumbnailKey, in.ImageKeys, now)
		if err != nil {
			return nil, err
		}
		if in.ThumbnailKey != nil {
			mod.ImageURL = s.fileService.PublicURL(*in.ThumbnailKey)
		}
	}
	mod.UpdatedAt = now

	err = s.modRepository.UpdateDetails(mod, images)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMod) {
			return nil, apperr.Invalid("name", "A mod with this name already exists.")
		}
		return nil, fmt.Errorf("failed to update mod: %w", err)
	}

	slog.Info("mod details updated", "mod_id", mod.ModID, "user_id", user.ID)
	return mod, nil
}

// mergeGallery replaces the thumbnail and/or the gallery, keeping whichever was not supplied.
func (s *ModService) mergeGallery(mod *model.Mod, thumbnailKey *string, imageKeys *[]string, now time.Time) ([]*model.ModImage, error) {
	current, err := s.modRepository.Images(mod.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	var images []*model.ModImage
	if thumbnailKey != nil {
		images = append(images, &model.ModImage{
			ID:          uuid.New().String(),
			ModID:       mod.ID,
			URL:         s.fileService.PublicURL(*thumbnailKey),
			IsThumbnail: true,
			CreatedAt:   now,
		})
	} else {
		for _, img := range current {
			if img.IsThumbnail {
				images = append(images, img)
			}
		}
	}

	if imageKeys != nil {
		for i, key := range *imageKeys {
			images = append(images, &model.ModImage{
				ID:        uuid.New().String(),
				ModID:     mod.ID,
				URL:       s.fileService.PublicURL(key),
				IsPrimary: i == 0,
				Position:  i + 1,
				CreatedAt: now,
			})
		}
	} else {
		for _, img := range current {
			if !img.IsThumbnail {
				images = append(images, img)
			}
		}
	}
	return images, nil
}

// SetApproved is restricted to trusted users; everyone else sees a missing route.
func (s *ModService) SetApproved(user *model.User, modID string, approved bool) error {
	if user == nil || !user.IsTrusted {
		return apperr.ErrNotFound
	}
	mod, err := s.getMod(modID)
	if err != nil {
		return err
	}
	err = s.modRepository.SetApproved(mod.ID, approved)
	if err != nil {
		return fmt.Errorf("failed to set approval: %w", err)
	}
	slog.Info("mod approval changed", "mod_id", mod.ModID, "approved", approved, "by", user.ID)
	return nil
}

// Details assembles the detail page; viewer may be nil.
func (s *ModService) Details(modID string, viewer *model.User) (*model.ModDetails, error) {
	mod, err := s.getMod(modID)
	if err != nil {
		return nil, err
	}
	return s.details(mod, viewer)
}

func (s *ModService) BySlugs(userSlug, modSlug string, viewer *model.User) (*model.ModDetails, error) {
	mod, err := s.modRepository.BySlugs(userSlug, modSlug)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mod: %w", err)
	}
	return s.details(mod, viewer)
}

// Find resolves an author slug and mod slug to the manifest id.
func (s *ModService) Find(userSlug, modSlug string) (string, error) {
	mod, err := s.modRepository.BySlugs(userSlug, modSlug)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("failed to get mod: %w", err)
	}
	return mod.ModID, nil
}

func (s *ModService) details(mod *model.Mod, viewer *model.User) (*model.ModDetails, error) {
	author, err := s.userRepository.ByID(mod.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	versions, err := s.modRepository.Versions(mod.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get versions: %w", err)
	}

	images, err := s.modRepository.Images(mod.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	details := &model.ModDetails{
		Mod:             mod,
		DescriptionHTML: s.markdown.HTML(mod.Description),
		Author:          author.Summary(),
		Versions:        versions,
		Images:          images,
		DependencyList:  manifest.Dependencies(mod.Dependencies).List(),
	}
	if details.DependencyList == nil {
		details.DependencyList = []string{}
	}

	if mod.CategoryID != nil {
		category, err := s.categoryRepository.ByID(*mod.CategoryID)
		if err == nil {
			details.Category = category
		} else if !errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
	}

	if viewer != nil {
		details.IsFavorite, err = s.favoriteRepository.IsFavorite(viewer.ID, mod.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get favorite: %w", err)
		}
	}

	return details, nil
}

// List applies the filter with a clamped page and limit.
func (s *ModService) List(filter model.ModFilter) ([]*model.ModListItem, model.PageMeta, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	items, total, err := s.modRepository.List(filter)
	if err != nil {
		return nil, model.PageMeta{}, err
	}
	return items, model.NewPageMeta(total, filter.Page, filter.Limit), nil
}

// PurgeCache drops expired featured selections and returns how many were removed.
func (s *ModService) PurgeCache() int {
	return s.featured.Purge()
}

// Featured serves the front page selection from an expiring cache.
func (s *ModService) Featured(modType string) ([]*model.ModListItem, error) {
	limit := 12
	if modType == model.ModTypeBuild {
		limit = 4
	}
	key := fmt.Sprintf("%s:%d", modType, limit)
	return s.featured.GetOrLoad(key, func() ([]*model.ModListItem, error) {
		return s.modRepository.Featured(modType, limit)
	})
}

// Check tells a client whether version is behind the latest release.
func (s *ModService) Check(modID, version string) (*VersionCheck, error) {
	mod, err := s.getMod(modID)
	if err != nil {
		return nil, err
	}
	latest, err := s.modRepository.LatestVersion(mod.ID)
	if err != nil {
		if errors.Is(err, repository.ErrVersionNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	check := &VersionCheck{LatestVersion: latest.Version, Changelog: latest.Changelog}
	switch {
	case strings.TrimSpace(version) == "":
		check.Message = "Latest version"
	case release.Newer(latest.Version, version):
		check.NewVersionAvailable = true
		check.Message = "New version available"
	default:
		check.Message = "No new version available"
	}
	return check, nil
}

// Download opens a version's archive and records the event. version may be "latest".
func (s *ModService) Download(ctx context.Context, modID, version, ip, userAgent string) (*ModDownload, error) {
	mod, err := s.getMod(modID)
	if err != nil {
		return nil, err
	}

	var v *model.ModVersion
	if version == "" || version == "latest" {
		v, err = s.modRepository.LatestVersion(mod.ID)
	} else {
		if release.Valid(version) {
			version = release.Normalize(version)
		}
		v, err = s.modRepository.VersionByNumber(mod.ID, version)
	}
	if err != nil {
		if errors.Is(err, repository.ErrVersionNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	body, err := s.fileService.Open(ctx, v.Filename)
	if err != nil {
		return nil, err
	}

	err = s.modRepository.RecordDownload(&model.ModDownload{
		ID:           uuid.New().String(),
		ModVersionID: v.ID,
		IP:           ip,
		UserAgent:    userAgent,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to record download", "error", err, "mod_id", mod.ModID, "version", v.Version)
	}

	contentType := mime.TypeByExtension("." + v.Extension)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &ModDownload{
		Body:        body,
		Filename:    fmt.Sprintf("%s %s.%s", mod.Name, v.Version, v.Extension),
		ContentType: contentType,
	}, nil
}

// DownloadStats buckets downloads per UTC day, oldest day first. Bounded periods include
// days without downloads. Unknown periods read as week.
func (s *ModService) DownloadStats(modID, period string, now time.Time) ([]model.DailyDownloads, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var since time.Time
	switch period {
	case "month":
		since = today.AddDate(0, 0, -30)
	case "all":
	default:
		since = today.AddDate(0, 0, -7)
	}

	mod, err := s.getMod(modID)
	if err != nil {
		return nil, err
	}

	times, err := s.modRepository.DownloadTimes(mod.ID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get downloads: %w", err)
	}

	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format(time.DateOnly)]++
	}

	stats := []model.DailyDownloads{}
	if since.IsZero() {
		if len(times) == 0 {
			return stats, nil
		}
		first := times[0].UTC()
		since = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	}
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		date := day.Format(time.DateOnly)
		if period == "all" && counts[date] == 0 {
			continue
		}
		stats = append(stats, model.DailyDownloads{Date: date, Downloads: counts[date]})
	}
	return stats, nil
}

func (s *ModService) Stats(modType string) (*model.SiteStats, error) {
	if modType == "" {
		modType = model.ModTypeMod
	}
	return s.modRepository.Stats(modType)
}
