package service

import (
	"fmt"
	"strings"

	"github.com/sotfmods/api/internal/model"
)

func passwordResetEmailTemplate(name, resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password - %s", appName)
	body := fmt.Sprintf(`Hi %s,

You requested a password reset for your account. Open the link below to set a new password:
%s

This link expires in 1 hour.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, name, resetURL, appName)

	return subject, body
}

func mentionTypeLabel(mentionType string) string {
	switch mentionType {
	case model.MentionTypeComment:
		return "commented on your mod"
	case model.MentionTypeReply:
		return "replied to your comment on"
	case model.MentionTypeMention:
		return "mentioned you in a comment on"
	default:
		return "interacted on"
	}
}

func mentionDigestEmailTemplate(name string, items []*model.MentionDigestItem, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("New notification on %s", appName)
	if len(items) > 1 {
		subject = fmt.Sprintf("%d new notifications on %s", len(items), appName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, you have new notifications:\n", name)
	for _, item := range items {
		modURL := fmt.Sprintf("%s/mods/%s/%s", appURL, item.ModAuthorSlug, item.ModSlug)
		fmt.Fprintf(&b, "\n%s %s %s:\n> %s\n%s\n", item.SourceName, mentionTypeLabel(item.Type), item.ModName, item.Message, modURL)
	}
	fmt.Fprintf(&b, "\nBest,\nThe %s Team", appName)

	return subject, b.String()
}
