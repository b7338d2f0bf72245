package service

import (
	"errors"
	"fmt"

	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

type FavoriteService struct {
	favoriteRepository repository.FavoriteRepository
	modRepository      repository.ModRepository
}

func NewFavoriteService(favoriteRepository repository.FavoriteRepository, modRepository repository.ModRepository) *FavoriteService {
	return &FavoriteService{
		favoriteRepository: favoriteRepository,
		modRepository:      modRepository,
	}
}

// Toggle flips the favorite of a mod addressed by its manifest id.
func (s *FavoriteService) Toggle(user *model.User, modID string) (bool, error) {
	mod, err := s.modRepository.ByModID(modID)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return false, apperr.ErrNotFound
		}
		return false, fmt.Errorf("failed to get mod: %w", err)
	}
	return s.favoriteRepository.Toggle(user.ID, mod.ID)
}

// Set forces the favorite state of a mod addressed by its row id.
func (s *FavoriteService) Set(user *model.User, id string, favorite bool) (bool, error) {
	_, err := s.modRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return false, apperr.ErrNotFound
		}
		return false, fmt.Errorf("failed to get mod: %w", err)
	}
	return s.favoriteRepository.Set(user.ID, id, favorite)
}

func (s *FavoriteService) ByUser(user *model.User) ([]*model.ModListItem, error) {
	return s.favoriteRepository.ByUser(user.ID)
}
