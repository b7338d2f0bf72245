package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/sotfmods/api/internal/model"
	"github.com/sotfmods/api/internal/repository"
)

func TestMentionedSlugs(t *testing.T) {
	tests := []struct {
		message string
		want    []string
	}{
		{"no mentions here", nil},
		{"@Hazel look at this", []string{"hazel"}},
		{"thanks @timmy and @virginia, @timmy again", []string{"timmy", "virginia"}},
		{"mail me at kelvin@example.com", []string{"example"}},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := MentionedSlugs(tt.message); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MentionedSlugs(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestCommentServiceCreate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "hazel")
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	mod, err := env.mods.Publish(ctx, owner, env.publishInput(t, owner, "Better Kelvin", "BetterKelvin", "1.0.0"))
	if err != nil {
		t.Fatal(err)
	}

	root, err := env.comments.Create(alice, CommentInput{ModID: mod.ID, Message: "Great mod! @bob have you tried it?"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	reply, err := env.comments.Create(bob, CommentInput{ModID: mod.ID, Message: "Yes, works well @alice @bob", ReplyID: &root.ID}, "10.0.0.2")
	if err != nil {
		t.Fatalf("Create(reply) error = %v", err)
	}
	if reply.ReplyID == nil || *reply.ReplyID != root.ID {
		t.Errorf("reply.ReplyID = %v", reply.ReplyID)
	}

	t.Run("reply to a reply is rejected", func(t *testing.T) {
		_, err := env.comments.Create(alice, CommentInput{ModID: mod.ID, Message: "nested", ReplyID: &reply.ID}, "")
		if !hasField(err, "reply_id") {
			t.Errorf("Create() error = %v, want field reply_id", err)
		}
	})

	t.Run("message length", func(t *testing.T) {
		for _, msg := range []string{"", "a", longText(501)} {
			_, err := env.comments.Create(alice, CommentInput{ModID: mod.ID, Message: msg}, "")
			if !hasField(err, "message") {
				t.Errorf("Create(%d chars) error = %v, want field message", len(msg), err)
			}
		}
	})

	threads, err := env.comments.ByMod(mod.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(threads) != 1 || len(threads[0].Replies) != 1 {
		t.Fatalf("threads = %+v", threads)
	}
	if mustMod(t, env, "BetterKelvin").CommentsCount != 2 {
		t.Error("comments_count should be 2")
	}

	pending, err := repository.NewMentionRepository(env.conn).Pending()
	if err != nil {
		t.Fatal(err)
	}
	got := map[string][]string{}
	for _, p := range pending {
		got[p.TargetName] = append(got[p.TargetName], p.Type)
	}
	want := map[string][]string{
		// root: owner hears about the comment, bob is mentioned
		// reply: alice hears about the reply once, owner about the comment, bob mentions himself
		"hazel": {model.MentionTypeComment, model.MentionTypeComment},
		"bob":   {model.MentionTypeMention},
		"alice": {model.MentionTypeReply},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("pending mentions = %v, want %v", got, want)
	}
}

func longText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
