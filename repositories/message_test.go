package repositories

import (
	"log/slog"
	"testing"
	"ticket-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	db := openDB(t)

	repository := NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), nil)
	group := "group-1"
	content := "see you at the gate"
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{ID: "m3", GroupID: group, AuthorID: "clara", Content: content, CreatedAt: at.Add(2 * time.Minute)},
		{ID: "m1", GroupID: group, AuthorID: "alice", Content: content, CreatedAt: at},
		{ID: "m2", GroupID: group, AuthorID: "bob", Content: content, CreatedAt: at.Add(1 * time.Minute)},
		{ID: "other", GroupID: "group-11", AuthorID: "bob", Content: content, CreatedAt: at},
	}
	for _, dm := range diskMessages {
		_, err := repository.StoreMessage(dm)
		req.NoError(err)
	}

	// When the history of the group is read
	fetchedMessages, err := repository.GetMessages(group)

	// Then it is sorted by creation time and scoped to the group
	req.NoError(err)
	req.Len(fetchedMessages, 3)
	req.Equal([]DiskMessage{diskMessages[1], diskMessages[2], diskMessages[0]}, fetchedMessages)
}

func Test_Record_Multiple_Message_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openDB(t)

	limit := 2
	repository := NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), &limit)
	at := time.Now().UTC()
	for i, author := range []string{"alice", "bob", "clara"} {
		_, err := repository.StoreMessage(DiskMessage{GroupID: "group-1", AuthorID: author, Content: "hi", CreatedAt: at.Add(time.Duration(i) * time.Minute)})
		req.NoError(err)
	}

	fetchedMessages, err := repository.GetMessages("group-1")

	// Then only the most recent ones are kept, oldest first
	req.NoError(err)
	req.Len(fetchedMessages, limit)
	req.Equal("bob", fetchedMessages[0].AuthorID)
	req.Equal("clara", fetchedMessages[1].AuthorID)
}

func Test_Get_Message_By_ID(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	repository := NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), nil)

	// Given a message stored without id nor date
	stored, err := repository.StoreMessage(DiskMessage{GroupID: "group-1", AuthorID: "alice", Content: "hello"})
	req.NoError(err)
	req.NotEmpty(stored.ID)
	req.False(stored.CreatedAt.IsZero())

	// When it is read by id
	fetched, err := repository.GetMessageByID(stored.ID)

	// Then
	req.NoError(err)
	req.Equal(stored.ID, fetched.ID)
	req.Equal("hello", fetched.Content)
	req.True(stored.CreatedAt.Equal(fetched.CreatedAt))

	_, err = repository.GetMessageByID("unknown")
	req.ErrorIs(err, errors.ErrNotFound)
}
