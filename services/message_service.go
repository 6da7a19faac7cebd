package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
	"ticket-chat/errors"
	"ticket-chat/moderation"
	"ticket-chat/repositories"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

type IMessageService interface {
	Memberships(userID string) ([]repositories.DiskMembership, error)
	History(userID, groupID string) ([]MessageView, error)
	GetByID(userID, messageID string) (MessageView, error)
	Post(ctx context.Context, cmd chat.PostMessageCommand) (MessageView, error)
	CanRead(userID, groupID string) error
	Profile(userID string) (repositories.Profile, error)
}

// MessageView is a stored message with the profile of its author.
type MessageView struct {
	repositories.DiskMessage
	Author *repositories.Profile
}

// MessageService enforces the row-level rules of the development backend:
// a user reads only the groups they belong to and writes only as themselves.
type MessageService struct {
	messages         repositories.IMessageRepository
	groups           repositories.IGroupRepository
	users            repositories.IUserRepository
	moderator        *moderation.Moderator
	stored           chan<- event.Event
	validate         *validator.Validate
	maxContentLength int
	log              *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	groups repositories.IGroupRepository,
	users repositories.IUserRepository,
	moderator *moderation.Moderator,
	stored chan<- event.Event,
	maxContentLength int,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:         messages,
		groups:           groups,
		users:            users,
		moderator:        moderator,
		stored:           stored,
		validate:         validator.New(),
		maxContentLength: maxContentLength,
		log:              log,
	}
}

func (s *MessageService) Memberships(userID string) ([]repositories.DiskMembership, error) {
	return s.groups.ListMemberships(userID)
}

// CanRead fails with errors.ErrForbidden when the user is not a member of the group.
func (s *MessageService) CanRead(userID, groupID string) error {
	isMember, err := s.groups.IsMember(userID, groupID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.ErrForbidden
	}
	return nil
}

func (s *MessageService) History(userID, groupID string) ([]MessageView, error) {
	if err := s.CanRead(userID, groupID); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetMessages(groupID)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]*repositories.Profile)
	views := make([]MessageView, 0, len(messages))
	for _, message := range messages {
		view := MessageView{DiskMessage: message}
		if profile, ok := profiles[message.AuthorID]; ok {
			view.Author = profile
		} else {
			view.Author = s.profile(message.AuthorID)
			profiles[message.AuthorID] = view.Author
		}
		views = append(views, view)
	}
	return views, nil
}

// GetByID hides messages of foreign groups behind errors.ErrNotFound.
func (s *MessageService) GetByID(userID, messageID string) (MessageView, error) {
	message, err := s.messages.GetMessageByID(messageID)
	if err != nil {
		return MessageView{}, err
	}
	if err := s.CanRead(userID, message.GroupID); err != nil {
		if stderrors.Is(err, errors.ErrForbidden) {
			return MessageView{}, errors.ErrNotFound
		}
		return MessageView{}, err
	}
	return MessageView{DiskMessage: message, Author: s.profile(message.AuthorID)}, nil
}

// Post stores a message written by a member of the group.
// Banned words are censored before storage, then the message is handed to the moderation worker.
func (s *MessageService) Post(ctx context.Context, cmd chat.PostMessageCommand) (MessageView, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return MessageView{}, errors.ErrEmptyMessage
	}
	if err := s.validate.Struct(cmd); err != nil {
		return MessageView{}, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(cmd.Content) > s.maxContentLength {
		return MessageView{}, fmt.Errorf("%w: content longer than %d characters", errors.ErrInvalidCommand, s.maxContentLength)
	}
	if err := s.CanRead(string(cmd.UserID), string(cmd.GroupID)); err != nil {
		return MessageView{}, err
	}

	content, censored := s.moderator.Censor(cmd.Content)
	createdAt := cmd.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	message, err := s.messages.StoreMessage(repositories.DiskMessage{
		GroupID:   string(cmd.GroupID),
		AuthorID:  string(cmd.UserID),
		Content:   content,
		CreatedAt: createdAt,
	})
	if err != nil {
		return MessageView{}, err
	}
	view := MessageView{DiskMessage: message, Author: s.profile(message.AuthorID)}

	select {
	case s.stored <- event.NewMessageInserted(view.toChat(), censored...):
	case <-ctx.Done():
		s.log.Warn("Message stored but not published", "message_id", message.ID, "error", ctx.Err())
	}
	return view, nil
}

func (s *MessageService) Profile(userID string) (repositories.Profile, error) {
	return s.users.GetProfile(userID)
}

func (s *MessageService) profile(userID string) *repositories.Profile {
	profile, err := s.users.GetProfile(userID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			s.log.Warn("Cannot read profile", "user_id", userID, "error", err)
		}
		return nil
	}
	return &profile
}

func (v MessageView) toChat() chat.Message {
	message := chat.Message{
		ID:        chat.MessageID(v.ID),
		GroupID:   chat.GroupID(v.GroupID),
		AuthorID:  chat.UserID(v.AuthorID),
		Content:   v.Content,
		CreatedAt: v.CreatedAt,
	}
	if v.Author != nil {
		message.Author = &chat.Profile{FullName: v.Author.FullName, AvatarURL: v.Author.AvatarURL}
	}
	return message
}
