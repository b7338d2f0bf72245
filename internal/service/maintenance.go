package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

// MaintenanceService holds the jobs run by the scheduler and the admin CLI.
type MaintenanceService struct {
	modRepository   repository.ModRepository
	tokenRepository repository.TokenRepository
	now             func() time.Time
}

func NewMaintenanceService(modRepository repository.ModRepository, tokenRepository repository.TokenRepository) *MaintenanceService {
	return &MaintenanceService{
		modRepository:   modRepository,
		tokenRepository: tokenRepository,
		now:             time.Now,
	}
}

// ReconcileCounters recomputes downloads, last week downloads, favorites and comments.
func (s *MaintenanceService) ReconcileCounters(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := s.now()
	n, err := s.modRepository.ReconcileCounters(start.AddDate(0, 0, -7))
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile counters: %w", err)
	}
	slog.Info("counters reconciled", "mods", n, "duration", time.Since(start))
	return n, nil
}

// DeleteUnapproved removes mods still waiting for approval. dryRun only lists them.
func (s *MaintenanceService) DeleteUnapproved(dryRun bool) ([]*model.Mod, error) {
	mods, err := s.modRepository.Unapproved()
	if err != nil {
		return nil, fmt.Errorf("failed to list unapproved mods: %w", err)
	}
	if dryRun {
		return mods, nil
	}
	for _, mod := range mods {
		err = s.modRepository.Delete(mod.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete mod %s: %w", mod.ModID, err)
		}
		slog.Info("unapproved mod deleted", "mod_id", mod.ModID)
	}
	return mods, nil
}

func (s *MaintenanceService) DeleteAllTokens() (int64, error) {
	return s.tokenRepository.DeleteAll()
}

func (s *MaintenanceService) DeleteExpiredTokens() (int64, error) {
	return s.tokenRepository.DeleteExpired()
}
