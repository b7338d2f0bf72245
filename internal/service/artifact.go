package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

type ArtifactInput struct {
	ArtifactID string `json:"artifact_id"`
	Code       string `json:"code"`
	Diagram    string `json:"diagram"`
}

type ArtifactService struct {
	artifactRepository repository.ArtifactRepository
}

func NewArtifactService(artifactRepository repository.ArtifactRepository) *ArtifactService {
	return &ArtifactService{artifactRepository: artifactRepository}
}

// Upload stores the caller's artifact, replacing the documents of one they already own.
func (s *ArtifactService) Upload(user *model.User, in ArtifactInput) (*model.Artifact, error) {
	artifactID := strings.TrimSpace(in.ArtifactID)
	if artifactID == "" {
		return nil, apperr.Invalid("artifact_id", "Artifact id is required.")
	}

	existing, err := s.artifactRepository.ByArtifactID(artifactID)
	if err != nil && !errors.Is(err, repository.ErrArtifactNotFound) {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	if existing != nil && existing.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}

	var errs apperr.Collector
	if !json.Valid([]byte(in.Code)) {
		errs.Add("code", "Invalid JSON in code")
	}
	if !json.Valid([]byte(in.Diagram)) {
		errs.Add("diagram", "Invalid JSON in diagram")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	artifact := existing
	if artifact == nil {
		artifact = &model.Artifact{
			ID:         uuid.New().String(),
			ArtifactID: artifactID,
			UserID:     user.ID,
			CreatedAt:  now,
		}
	}
	artifact.Code = in.Code
	artifact.Diagram = in.Diagram
	artifact.UpdatedAt = now

	err = s.artifactRepository.Save(artifact)
	if err != nil {
		// Lost a race against another user creating the same id
		if errors.Is(err, repository.ErrArtifactNotOwned) {
			return nil, apperr.ErrForbidden
		}
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}
	return artifact, nil
}

// Diagram returns the stored diagram document of an artifact.
func (s *ArtifactService) Diagram(artifactID string) (string, error) {
	artifact, err := s.artifactRepository.ByArtifactID(artifactID)
	if err != nil {
		if errors.Is(err, repository.ErrArtifactNotFound) {
			return "", apperr.ErrNotFound
		}
		return "", fmt.Errorf("failed to get artifact: %w", err)
	}
	return artifact.Diagram, nil
}
