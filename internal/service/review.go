package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/sanitize"
)

type ReviewInput struct {
	ModID   string `json:"modId"`
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ReviewService struct {
	reviewRepository repository.ReviewRepository
	modRepository    repository.ModRepository
}

func NewReviewService(reviewRepository repository.ReviewRepository, modRepository repository.ModRepository) *ReviewService {
	return &ReviewService{
		reviewRepository: reviewRepository,
		modRepository:    modRepository,
	}
}

// Submit creates the caller's review of a mod or replaces the previous one.
func (s *ReviewService) Submit(user *model.User, in ReviewInput) (*model.Review, error) {
	title := sanitize.Input(in.Title)
	message := sanitize.Input(in.Message)

	var errs apperr.Collector
	if in.Rating < 1 || in.Rating > 5 {
		errs.Add("rating", "Rating must be between 1 and 5.")
	}
	if n := utf8.RuneCountInString(title); n > 100 {
		errs.Add("title", "Title cant be longer than 100 characters")
	}
	if n := utf8.RuneCountInString(message); n > 2000 {
		errs.Add("message", "Message cant be longer than 2000 characters")
	}
	if strings.TrimSpace(in.ModID) == "" {
		errs.Add("modId", "Mod is required.")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	_, err := s.modRepository.ByID(in.ModID)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mod: %w", err)
	}

	now := time.Now().UTC()
	review := &model.Review{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ModID:     in.ModID,
		Rating:    in.Rating,
		Title:     title,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    user.Summary(),
	}
	err = s.reviewRepository.Upsert(review)
	if err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) ByMod(modID string) ([]*model.Review, error) {
	return s.reviewRepository.ByMod(modID)
}
