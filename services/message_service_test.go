package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
	"ticket-chat/errors"
	"ticket-chat/mocks"
	"ticket-chat/moderation"
	"ticket-chat/repositories"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type messageServiceFixture struct {
	messages *mocks.MockIMessageRepository
	groups   *mocks.MockIGroupRepository
	users    *mocks.MockIUserRepository
	stored   chan event.Event
	service  *MessageService
}

func newMessageServiceFixture(t *testing.T) messageServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	moderator, err := moderation.NewModerator([]string{"scam"}, '*', log)
	require.NoError(t, err)
	f := messageServiceFixture{
		messages: mocks.NewMockIMessageRepository(ctrl),
		groups:   mocks.NewMockIGroupRepository(ctrl),
		users:    mocks.NewMockIUserRepository(ctrl),
		stored:   make(chan event.Event, 1),
	}
	f.service = NewMessageService(f.messages, f.groups, f.users, moderator, f.stored, 20, log)
	return f
}

func TestMessageService_Post(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)
	at := time.Date(2026, 7, 14, 20, 0, 0, 0, time.UTC)

	// Given alice is a member of the group
	f.groups.EXPECT().IsMember("alice", "group-1").Return(true, nil).Times(1)
	// And the censored content is stored
	f.messages.EXPECT().
		StoreMessage(repositories.DiskMessage{GroupID: "group-1", AuthorID: "alice", Content: "no **** here", CreatedAt: at}).
		DoAndReturn(func(m repositories.DiskMessage) (repositories.DiskMessage, error) {
			m.ID = "m1"
			return m, nil
		}).
		Times(1)
	f.users.EXPECT().GetProfile("alice").Return(repositories.Profile{UserID: "alice", FullName: "Alice Martin"}, nil).Times(1)

	// When she posts a message
	view, err := f.service.Post(context.Background(), chat.PostMessageCommand{
		GroupID: "group-1", UserID: "alice", Content: "no scam here", CreatedAt: at,
	})

	// Then the stored row is returned with its author
	req.NoError(err)
	req.Equal("m1", view.ID)
	req.Equal("Alice Martin", view.Author.FullName)

	// And it is handed to the moderation worker with the censored words
	evt := <-f.stored
	payload := evt.Payload.(event.MessageInserted)
	req.Equal(chat.MessageID("m1"), payload.Message.ID)
	req.Equal([]string{"scam"}, payload.CensoredWords)
}

func TestMessageService_Post_Rules(t *testing.T) {
	f := newMessageServiceFixture(t)

	t.Run("should refuse non members", func(t *testing.T) {
		req := require.New(t)
		f.groups.EXPECT().IsMember("mallory", "group-1").Return(false, nil).Times(1)
		f.messages.EXPECT().StoreMessage(gomock.Any()).Times(0)

		_, err := f.service.Post(context.Background(), chat.PostMessageCommand{GroupID: "group-1", UserID: "mallory", Content: "hi"})

		req.ErrorIs(err, errors.ErrForbidden)
	})

	t.Run("should refuse blank content", func(t *testing.T) {
		req := require.New(t)

		_, err := f.service.Post(context.Background(), chat.PostMessageCommand{GroupID: "group-1", UserID: "alice", Content: "  \n "})

		req.ErrorIs(err, errors.ErrEmptyMessage)
	})

	t.Run("should refuse content over the limit", func(t *testing.T) {
		req := require.New(t)

		_, err := f.service.Post(context.Background(), chat.PostMessageCommand{GroupID: "group-1", UserID: "alice", Content: strings.Repeat("a", 21)})

		req.ErrorIs(err, errors.ErrInvalidCommand)
	})

	t.Run("should refuse a command without group", func(t *testing.T) {
		req := require.New(t)

		_, err := f.service.Post(context.Background(), chat.PostMessageCommand{UserID: "alice", Content: "hi"})

		req.ErrorIs(err, errors.ErrInvalidCommand)
	})
}

func TestMessageService_History(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)

	f.groups.EXPECT().IsMember("alice", "group-1").Return(true, nil).Times(1)
	f.messages.EXPECT().GetMessages("group-1").Return([]repositories.DiskMessage{
		{ID: "m1", GroupID: "group-1", AuthorID: "bob"},
		{ID: "m2", GroupID: "group-1", AuthorID: "bob"},
		{ID: "m3", GroupID: "group-1", AuthorID: "ghost"},
	}, nil).Times(1)
	// Profiles are read once per author
	f.users.EXPECT().GetProfile("bob").Return(repositories.Profile{UserID: "bob", FullName: "Bob"}, nil).Times(1)
	f.users.EXPECT().GetProfile("ghost").Return(repositories.Profile{}, errors.ErrNotFound).Times(1)

	views, err := f.service.History("alice", "group-1")

	req.NoError(err)
	req.Len(views, 3)
	req.Equal("Bob", views[1].Author.FullName)
	req.Nil(views[2].Author)
}

func TestMessageService_GetByID_Hides_Foreign_Groups(t *testing.T) {
	req := require.New(t)
	f := newMessageServiceFixture(t)

	f.messages.EXPECT().GetMessageByID("m1").Return(repositories.DiskMessage{ID: "m1", GroupID: "group-2"}, nil).Times(1)
	f.groups.EXPECT().IsMember("alice", "group-2").Return(false, nil).Times(1)

	_, err := f.service.GetByID("alice", "m1")

	req.ErrorIs(err, errors.ErrNotFound)
}
