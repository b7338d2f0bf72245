package service

import (
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

type CategoryService struct {
	categoryRepository repository.CategoryRepository
}

func NewCategoryService(categoryRepository repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepository: categoryRepository}
}

func (s *CategoryService) List(modType string) ([]*model.Category, error) {
	return s.categoryRepository.List(modType)
}
