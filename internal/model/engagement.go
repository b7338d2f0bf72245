package model

import (
	"time"
)

const (
	MentionTypeComment = "comment"
	MentionTypeReply   = "reply"
	MentionTypeMention = "mention"
)

type Favorite struct {
	UserID    string    `db:"user_id"`
	ModID     string    `db:"mod_id"`
	CreatedAt time.Time `db:"created_at"`
}

type Review struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	ModID     string    `db:"mod_id" json:"modId"`
	Rating    int       `db:"rating" json:"rating"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Author UserSummary `db:"-" json:"user"`
}

type Comment struct {
	ID        string    `db:"id" json:"id"`
	ModID     string    `db:"mod_id" json:"modId"`
	UserID    string    `db:"user_id" json:"-"`
	ReplyID   *string   `db:"reply_id" json:"replyId"`
	Message   string    `db:"message" json:"message"`
	IP        string    `db:"ip" json:"-"`
	IsHidden  bool      `db:"is_hidden" json:"isHidden"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Author  UserSummary `db:"-" json:"user"`
	Replies []*Comment  `db:"-" json:"replies,omitempty"`
}

func (c *Comment) IsReply() bool {
	return c.ReplyID != nil && *c.ReplyID != ""
}

type PendingMention struct {
	ID           string    `db:"id"`
	TargetUserID string    `db:"target_user_id"`
	SourceUserID string    `db:"source_user_id"`
	ModID        string    `db:"mod_id"`
	CommentID    string    `db:"comment_id"`
	Type         string    `db:"type"`
	Message      string    `db:"message"`
	CreatedAt    time.Time `db:"created_at"`
}

// MentionDigestItem is a pending mention joined with the names the email needs.
type MentionDigestItem struct {
	ID            string `db:"id"`
	Type          string `db:"type"`
	Message       string `db:"message"`
	TargetUserID  string `db:"target_user_id"`
	TargetEmail   string `db:"target_email"`
	TargetName    string `db:"target_name"`
	SourceName    string `db:"source_name"`
	ModName       string `db:"mod_name"`
	ModSlug       string `db:"mod_slug"`
	ModAuthorSlug string `db:"mod_author_slug"`
}

type KelvinMessage struct {
	ID        string    `db:"id" json:"id"`
	ChatID    string    `db:"chat_id" json:"chatId"`
	Role      string    `db:"role" json:"role"`
	Prompt    string    `db:"prompt" json:"prompt"`
	Message   string    `db:"message" json:"message"`
	MessageID string    `db:"message_id" json:"messageId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
