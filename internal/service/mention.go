package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

type MentionService struct {
	mentionRepository repository.MentionRepository
	mailer            MentionMailer
}

func NewMentionService(mentionRepository repository.MentionRepository, mailer MentionMailer) *MentionService {
	return &MentionService{
		mentionRepository: mentionRepository,
		mailer:            mailer,
	}
}

// Drain sends one email per user with pending mentions, then deletes what was sent.
// A crash between sending and deleting sends the same mentions again on the next run.
func (s *MentionService) Drain(ctx context.Context) (int, error) {
	pending, err := s.mentionRepository.Pending()
	if err != nil {
		return 0, fmt.Errorf("failed to load pending mentions: %w", err)
	}

	// Pending is ordered by target user
	var groups [][]*model.MentionDigestItem
	for i, item := range pending {
		if i == 0 || pending[i-1].TargetUserID != item.TargetUserID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], item)
	}

	sent := 0
	var errs []error
	for _, items := range groups {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		target := items[0]
		err := s.mailer.SendMentionDigest(target.TargetEmail, target.TargetName, items)
		if err != nil {
			slog.Error("failed to send mention digest", "error", err, "user_id", target.TargetUserID, "items", len(items))
			errs = append(errs, err)
			continue
		}

		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		err = s.mentionRepository.DeleteByIDs(ids)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to delete sent mentions: %w", err))
			continue
		}
		sent++
	}

	if sent > 0 {
		slog.Info("mention digests sent", "users", sent, "mentions", len(pending))
	}
	return sent, errors.Join(errs...)
}
