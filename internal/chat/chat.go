// Package chat sends a single prompt to an OpenAI compatible chat completion API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var ErrNotConfigured = errors.New("chat API key is not configured")

// Request is one exchange: the system prompt plus the user's text. ParentMessageID names
// the previous answer in the conversation, empty when it starts.
type Request struct {
	SystemPrompt    string
	Text            string
	ParentMessageID string
}

type Response struct {
	MessageID string
	Answer    string
}

// Completer answers a chat request
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// OpenAI implements Completer with go-openai
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a Completer; an empty apiKey yields one that always fails with
// ErrNotConfigured.
func NewOpenAI(apiKey, model string) Completer {
	if apiKey == "" {
		return disabled{}
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model}
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Text})

	// Chat completions keep no server-side threads, so the parent id only shows up in
	// logs; the history itself travels in the system prompt.
	if req.ParentMessageID != "" {
		slog.Debug("chat completion continues conversation", "parent_message_id", req.ParentMessageID)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &Response{
		MessageID: resp.ID,
		Answer:    resp.Choices[0].Message.Content,
	}, nil
}

type disabled struct{}

func (disabled) Complete(context.Context, Request) (*Response, error) {
	return nil, ErrNotConfigured
}

// QuotaExceeded reports whether err is the upstream "quota exceeded" failure.
func QuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == "insufficient_quota" {
		return true
	}
	return strings.Contains(err.Error(), "exceeded your current quota")
}
