package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	modRepository  repository.ModRepository
	fileService    *FileService
}

func NewUserService(
	userRepository repository.UserRepository,
	modRepository repository.ModRepository,
	fileService *FileService,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		modRepository:  modRepository,
		fileService:    fileService,
	}
}

// Profile returns the public profile, or apperr.ErrNotFound.
func (s *UserService) Profile(userSlug string) (*model.User, error) {
	user, err := s.userRepository.BySlug(userSlug)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) Stats(userSlug string) (*model.UserStats, error) {
	user, err := s.Profile(userSlug)
	if err != nil {
		return nil, err
	}
	return s.modRepository.UserStats(user.ID, time.Now().UTC())
}

// UploadAvatar replaces the user's avatar and returns the new image URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return "", apperr.Invalid("avatar", err.Error())
	}

	err = s.fileService.DeleteUserAvatar(ctx, userID)
	if err != nil {
		slog.Warn("failed to delete old avatar", "error", err, "user_id", userID)
	}

	uploaded, err := s.fileService.Upload(ctx, userID, model.OwnerTypeUser, userID, model.FileTypeAvatar, file, header, true)
	if err != nil {
		return "", err
	}

	url := s.fileService.URL(uploaded)
	err = s.userRepository.UpdateImageURL(userID, &url)
	if err != nil {
		return "", fmt.Errorf("failed to update avatar url: %w", err)
	}

	slog.Info("avatar uploaded", "user_id", userID)
	return url, nil
}
