package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/storage"
	"github.com/sotfmods/api/internal/validation"
)

const (
	maxPresignExpiry = 7 * 24 * time.Hour
	uploadPrefix     = "uploads/"
)

type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
}

type FileService struct {
	fileRepo      repository.FileRepository
	storage       storage.Storage
	presignExpiry time.Duration
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage, presignExpiry time.Duration) *FileService {
	return &FileService{
		fileRepo:      fileRepo,
		storage:       storage,
		presignExpiry: presignExpiry,
	}
}

// Upload stores a multipart file under public/<type>s/ or private/<type>s/ and records it.
// Content checks are the caller's job.
func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader, isPublic bool) (*model.File, error) {
	visibility := "private"
	if isPublic {
		visibility = "public"
	}
	filename := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))

	record := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Key:          path.Join(visibility, fileType+"s", filename),
		Public:       isPublic,
		CreatedAt:    time.Now().UTC(),
	}

	err := s.storage.Save(ctx, record.Key, file, record.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}

	err = s.fileRepo.Create(record)
	if err != nil {
		if delErr := s.storage.Delete(ctx, record.Key); delErr != nil {
			slog.Error("failed to remove orphaned object", "error", delErr, "key", record.Key)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}
	return record, nil
}

// URL returns the public URL of a stored file
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.PublicURL(file.Key)
}

// Delete removes the object and its record. A storage failure is only logged.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	if delErr := s.storage.Delete(ctx, file.Key); delErr != nil {
		slog.Error("failed to delete object", "error", delErr, "key", file.Key)
	}

	err = s.fileRepo.Delete(fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

// DeleteUserAvatar removes the user's current avatar, if any.
func (s *FileService) DeleteUserAvatar(ctx context.Context, userID string) error {
	file, err := s.fileRepo.Latest(model.OwnerTypeUser, userID, model.FileTypeAvatar)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(ctx, file.ID)
}

// PresignUpload hands out a direct-to-bucket PUT URL under uploads/ and records the
// issued key against the user.
func (s *FileService) PresignUpload(ctx context.Context, userID, filename, contentType string, expiresIn time.Duration) (*PresignedUpload, error) {
	filename = strings.TrimSpace(filename)
	err := validation.ValidateFilename(filename)
	if err != nil {
		return nil, apperr.Invalid("filename", err.Error())
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if expiresIn <= 0 {
		expiresIn = s.presignExpiry
	}
	expiresIn = min(expiresIn, maxPresignExpiry)

	key := fmt.Sprintf("%s%s-%s", uploadPrefix, uuid.New().String(), filename)
	url, err := s.storage.PresignedUploadURL(ctx, key, contentType, expiresIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}

	err = s.fileRepo.Create(&model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    model.OwnerTypeUser,
		OwnerID:      userID,
		Type:         model.FileTypeUpload,
		Filename:     path.Base(key),
		OriginalName: filename,
		ContentType:  contentType,
		Key:          key,
		Public:       true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	return &PresignedUpload{UploadURL: url, FileKey: key}, nil
}

// CheckUpload reports whether key was presigned for userID. Only keys under uploads/
// qualify, so avatars and other stored objects cannot be passed off as uploads.
func (s *FileService) CheckUpload(userID, field, key string) error {
	if !strings.HasPrefix(key, uploadPrefix) {
		return apperr.Invalid(field, "Invalid file key.")
	}

	file, err := s.fileRepo.ByKey(key)
	if errors.Is(err, repository.ErrFileNotFound) || (err == nil && file.Type != model.FileTypeUpload) {
		return apperr.Invalid(field, "File not found.")
	}
	if err != nil {
		return fmt.Errorf("failed to get upload: %w", err)
	}
	if file.UserID != userID {
		return apperr.ErrForbidden
	}
	return nil
}

// Fetch reads an uploaded object into memory after checking its size against limit.
// field names the request field the key came from.
func (s *FileService) Fetch(ctx context.Context, field, key string, limit int64) ([]byte, error) {
	size, err := s.storage.Size(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.Invalid(field, "File not found.")
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}
	if size > limit {
		return nil, apperr.Invalid(field, fmt.Sprintf("File is too large. Maximum size is %d MB.", limit/(1<<20)))
	}

	body, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.Invalid(field, "File not found.")
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}
	defer body.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}
	if int64(buf.Len()) > limit {
		return nil, apperr.Invalid(field, fmt.Sprintf("File is too large. Maximum size is %d MB.", limit/(1<<20)))
	}
	return buf.Bytes(), nil
}

// Open streams an object for download.
func (s *FileService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpload, err)
	}
	return body, nil
}

// PublicURL is the address objects are served from.
func (s *FileService) PublicURL(key string) string {
	return s.storage.PublicURL(key)
}
