package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyReply is returned when the model answers with no usable text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Service sends chart prompts to a chat model and returns cleaned replies.
type Service struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
	logger    *slog.Logger
}

// NewService wraps chatModel. A zero timeout leaves the call bounded only by ctx.
func NewService(chatModel model.BaseChatModel, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{chatModel: chatModel, timeout: timeout, logger: logger}
}

// Generate sends prompt as a single user message.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.chatModel == nil {
		return "", errors.New("ai service not initialized")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt cannot be empty")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate chart config: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyReply
	}
	text := Clean(resp.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	s.logger.Debug("model reply received", "elapsed", time.Since(start), "chars", len(text))
	return text, nil
}
