package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/slug"
	"github.com/sotfmods/api/internal/validation"
)

var modSides = map[string]bool{"client": true, "server": true, "both": true}

// BuildPreview is what the client shows before a build is published.
type BuildPreview struct {
	ModID             string          `json:"mod_id"`
	Name              string          `json:"name"`
	ShortDescription  string          `json:"shortDescription"`
	BuildShareVersion string          `json:"buildShareVersion"`
	NumberOfElements  *int64          `json:"numberOfElements"`
	Contents          json.RawMessage `json:"contents"`
}

type BuildPublishInput struct {
	Description             string   `json:"description"`
	CategoryID              *int64   `json:"category_id"`
	BuildFileKey            string   `json:"buildFileKey"`
	ThumbnailKey            string   `json:"thumbnailKey"`
	ImageKeys               []string `json:"imageKeys"`
	ModSide                 *string  `json:"modSide"`
	IsMultiplayerCompatible bool     `json:"isMultiplayerCompatible"`
	RequiresAllPlayers      bool     `json:"requiresAllPlayers"`
}

// buildFile is the subset of an exported in-game build the site reads.
type buildFile struct {
	GUID             any    `json:"Guid"`
	Name             any    `json:"Name"`
	Description      any    `json:"Description"`
	Data             string `json:"Data"`
	NumberOfElements *int64 `json:"NumberOfElements"`
}

func text(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

var errInvalidBuild = apperr.Invalid("buildFile", "Build file is invalid.")

// ParseBuild validates a build export and extracts its identity.
func ParseBuild(data []byte) (*BuildPreview, error) {
	var f buildFile
	err := json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &f)
	if err != nil {
		return nil, errInvalidBuild
	}

	preview := &BuildPreview{
		ModID:            text(f.GUID),
		Name:             text(f.Name),
		ShortDescription: text(f.Description),
		NumberOfElements: f.NumberOfElements,
		Contents:         json.RawMessage(data),
	}
	if preview.ModID == "" || preview.Name == "" || preview.ShortDescription == "" {
		return nil, errInvalidBuild
	}

	var inner struct {
		Version any `json:"Version"`
	}
	if err := json.Unmarshal([]byte(f.Data), &inner); err != nil || text(inner.Version) == "" {
		return nil, errInvalidBuild
	}
	preview.BuildShareVersion = text(inner.Version)

	return preview, nil
}

type BuildService struct {
	mods               *ModService
	modRepository      repository.ModRepository
	categoryRepository repository.CategoryRepository
	fileService        *FileService
	limit              int64
}

func NewBuildService(mods *ModService, modRepository repository.ModRepository, categoryRepository repository.CategoryRepository, fileService *FileService, limit int64) *BuildService {
	return &BuildService{
		mods:               mods,
		modRepository:      modRepository,
		categoryRepository: categoryRepository,
		fileService:        fileService,
		limit:              limit,
	}
}

// Preview parses an uploaded build file without storing anything.
func (s *BuildService) Preview(file multipart.File, header *multipart.FileHeader) (*BuildPreview, error) {
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return nil, apperr.Invalid("buildFile", "Build file must be a json file.")
	}
	if header.Size > s.limit {
		return nil, apperr.Invalid("buildFile", fmt.Sprintf("Build file size exceeds the limit of %dMB.", s.limit/(1<<20)))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read build file: %w", err)
	}
	if int64(len(data)) > s.limit {
		return nil, apperr.Invalid("buildFile", fmt.Sprintf("Build file size exceeds the limit of %dMB.", s.limit/(1<<20)))
	}

	return ParseBuild(data)
}

// Publish creates an approved build from an uploaded build file. Builds are not
// semantically versioned, each upload gets a time ordered UUID.
func (s *BuildService) Publish(ctx context.Context, user *model.User, in BuildPublishInput) (*model.Mod, error) {
	var errs apperr.Collector
	if err := validation.ValidateKey(in.BuildFileKey); err != nil {
		errs.Add("buildFileKey", err.Error())
	} else if !strings.EqualFold(path.Ext(in.BuildFileKey), ".json") {
		errs.Add("buildFile", "Build file must be a json file.")
	}
	if err := validation.ValidateImageKey(in.ThumbnailKey); err != nil {
		errs.Add("thumbnailKey", err.Error())
	}
	validateGallery(&errs, in.ImageKeys)
	if in.ModSide != nil && !modSides[*in.ModSide] {
		errs.Add("modSide", "Mod side must be client, server or both.")
	}
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

	data, err := s.fileService.Fetch(ctx, "buildFileKey", in.BuildFileKey, s.limit)
	if err != nil {
		return nil, err
	}
	build, err := ParseBuild(data)
	if err != nil {
		return nil, err
	}

	validateMetadata(&errs, build.Name, build.ShortDescription, in.Description)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	buildSlug := slug.Make(build.Name)
	if err := s.mods.checkUnique("build", build.Name, buildSlug, build.ModID); err != nil {
		return nil, err
	}

	versionID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate version: %w", err)
	}

	now := time.Now().UTC()
	guid := build.ModID
	shareVersion := build.BuildShareVersion
	mod := &model.Mod{
		ID:                      uuid.New().String(),
		ModID:                   build.ModID,
		Name:                    build.Name,
		Slug:                    buildSlug,
		ShortDescription:        build.ShortDescription,
		Description:             strings.TrimSpace(in.Description),
		Type:                    model.ModTypeBuild,
		IsApproved:              true,
		CategoryID:              in.CategoryID,
		UserID:                  user.ID,
		LatestVersion:           versionID.String(),
		ImageURL:                s.fileService.PublicURL(in.ThumbnailKey),
		BuildGUID:               &guid,
		BuildShareVersion:       &shareVersion,
		NumberOfElements:        build.NumberOfElements,
		ModSide:                 in.ModSide,
		IsMultiplayerCompatible: in.IsMultiplayerCompatible,
		RequiresAllPlayers:      in.RequiresAllPlayers,
		CreatedAt:               now,
		UpdatedAt:               now,
		LastReleasedAt:          now,
	}
	version := &model.ModVersion{
		ID:          uuid.New().String(),
		ModID:       mod.ID,
		Version:     mod.LatestVersion,
		Changelog:   firstChangelog,
		DownloadURL: s.fileService.PublicURL(in.BuildFileKey),
		Filename:    in.BuildFileKey,
		Extension:   "json",
		IsLatest:    true,
		CreatedAt:   now,
	}

	err = s.modRepository.Publish(mod, version, s.mods.galleryRows(mod.ID, in.ThumbnailKey, in.ImageKeys, now))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateMod) {
			return nil, apperr.Invalid("name", "Build already exists. Try a different name or build Guid")
		}
		return nil, fmt.Errorf("failed to publish build: %w", err)
	}

	slog.Info("build published", "mod_id", mod.ModID, "user_id", user.ID)
	return mod, nil
}
