//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"time"

	"github.com/go-playground/validator/v10"
)

type IChatService interface {
	History(ctx context.Context, cmd chat.GetMessageCommand) ([]chat.Message, error)
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.MessageID, error)
}

// ChatService issues the history and insert requests of the client,
// each one under the request timeout.
type ChatService struct {
	backend  contract.Backend
	validate *validator.Validate
	timeout  time.Duration
	log      *slog.Logger
}

func NewChatService(backend contract.Backend, timeout time.Duration, log *slog.Logger) *ChatService {
	return &ChatService{backend: backend, validate: validator.New(), timeout: timeout, log: log}
}

// History returns the messages of a group, oldest first.
func (s *ChatService) History(ctx context.Context, cmd chat.GetMessageCommand) ([]chat.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages, err := s.backend.ListMessages(ctx, cmd.GroupID)
	if err != nil {
		s.log.Warn("Cannot load history", "group_id", cmd.GroupID, "error", err)
		return nil, err
	}
	s.log.Debug("History loaded", "group_id", cmd.GroupID, "count", len(messages))
	return messages, nil
}

// PostMessage inserts a message and returns its server id.
// Content is sent trimmed, blank content is refused before any request.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.MessageID, error) {
	cmd.Content = strings.TrimSpace(cmd.Content)
	if cmd.Content == "" {
		return "", errors.ErrEmptyMessage
	}
	if err := s.validate.Struct(cmd); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.backend.InsertMessage(ctx, chat.NewMessage{
		GroupID:  cmd.GroupID,
		AuthorID: cmd.UserID,
		Content:  cmd.Content,
	})
	if err != nil {
		s.log.Warn("Cannot send message", "group_id", cmd.GroupID, "error", err)
		return "", err
	}
	return id, nil
}
