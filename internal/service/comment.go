package service

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sotfmods/api/internal/apperr"
	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
	"github.com/sotfmods/api/internal/sanitize"
)

var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9][a-zA-Z0-9_-]*)`)

type CommentInput struct {
	ModID   string  `json:"mod_id"`
	Message string  `json:"message"`
	ReplyID *string `json:"reply_id"`
}

type CommentService struct {
	commentRepository repository.CommentRepository
	modRepository     repository.ModRepository
	userRepository    repository.UserRepository
}

func NewCommentService(
	commentRepository repository.CommentRepository,
	modRepository repository.ModRepository,
	userRepository repository.UserRepository,
) *CommentService {
	return &CommentService{
		commentRepository: commentRepository,
		modRepository:     modRepository,
		userRepository:    userRepository,
	}
}

// MentionedSlugs returns the distinct lowercased @slugs in message, in order of appearance.
func MentionedSlugs(message string) []string {
	seen := make(map[string]bool)
	var slugs []string
	for _, m := range mentionPattern.FindAllStringSubmatch(message, -1) {
		s := strings.ToLower(m[1])
		if !seen[s] {
			seen[s] = true
			slugs = append(slugs, s)
		}
	}
	return slugs
}

// Create posts a comment or a reply and queues the notifications it causes.
func (s *CommentService) Create(author *model.User, in CommentInput, ip string) (*model.Comment, error) {
	message := sanitize.Input(in.Message)
	switch n := utf8.RuneCountInString(message); {
	case n == 0:
		return nil, apperr.Invalid("message", "Message cant be empty")
	case n > 500:
		return nil, apperr.Invalid("message", "Message cant be longer than 500 characters")
	case n < 2:
		return nil, apperr.Invalid("message", "Message cant be shorter than 2 characters")
	}

	mod, err := s.modRepository.ByID(in.ModID)
	if err != nil {
		if errors.Is(err, repository.ErrModNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get mod: %w", err)
	}

	var parent *model.Comment
	if in.ReplyID != nil && *in.ReplyID != "" {
		parent, err = s.commentRepository.ByID(*in.ReplyID)
		if err != nil {
			if errors.Is(err, repository.ErrCommentNotFound) {
				return nil, apperr.Invalid("reply_id", "Comment to reply to was not found.")
			}
			return nil, fmt.Errorf("failed to get parent comment: %w", err)
		}
		if parent.ModID != mod.ID {
			return nil, apperr.Invalid("reply_id", "Comment to reply to belongs to another mod.")
		}
		if parent.IsReply() {
			return nil, apperr.Invalid("reply_id", "Cannot reply to a reply.")
		}
	}

	now := time.Now().UTC()
	comment := &model.Comment{
		ID:        uuid.New().String(),
		ModID:     mod.ID,
		UserID:    author.ID,
		Message:   message,
		IP:        ip,
		CreatedAt: now,
		Author:    author.Summary(),
	}
	if parent != nil {
		comment.ReplyID = &parent.ID
	}

	mentions, err := s.mentions(author, mod, parent, comment, in.Message)
	if err != nil {
		return nil, err
	}

	err = s.commentRepository.Create(comment, mentions)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	slog.Info("comment created", "comment_id", comment.ID, "mod_id", mod.ModID, "mentions", len(mentions))
	return comment, nil
}

// mentions decides who hears about a comment: the mod owner, the parent author and every
// @mentioned user. The author is never notified and each target is notified once, with
// the first reason that applies.
func (s *CommentService) mentions(author *model.User, mod *model.Mod, parent, comment *model.Comment, raw string) ([]*model.PendingMention, error) {
	var out []*model.PendingMention
	notified := map[string]bool{author.ID: true}
	add := func(targetID, mentionType string) {
		if notified[targetID] {
			return
		}
		notified[targetID] = true
		out = append(out, &model.PendingMention{
			ID:           uuid.New().String(),
			TargetUserID: targetID,
			SourceUserID: author.ID,
			ModID:        mod.ID,
			CommentID:    comment.ID,
			Type:         mentionType,
			Message:      comment.Message,
			CreatedAt:    comment.CreatedAt,
		})
	}

	if parent != nil {
		add(parent.UserID, model.MentionTypeReply)
	}
	add(mod.UserID, model.MentionTypeComment)

	slugs := MentionedSlugs(raw)
	if len(slugs) > 0 {
		users, err := s.userRepository.BySlugs(slugs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve mentions: %w", err)
		}
		for _, u := range users {
			add(u.ID, model.MentionTypeMention)
		}
	}
	return out, nil
}

func (s *CommentService) ByMod(modID string) ([]*model.Comment, error) {
	comments, err := s.commentRepository.ByMod(modID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	return comments, nil
}
