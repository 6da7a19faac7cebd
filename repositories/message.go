//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"ticket-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix   = "msg:"
	messageIDPrefix = "msgid:"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) (DiskMessage, error)
	GetMessages(groupID string) ([]DiskMessage, error)
	GetMessageByID(id string) (DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreMessage persists a message in BadgerDB.
// A missing id or creation time is generated.
// The key is formatted as "msg:{group_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the id as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// A second key "msgid:{uuid}" points to the first one for lookups by id.
func (m MessageRepository) StoreMessage(message DiskMessage) (DiskMessage, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	key := messageKey(message)
	bytes, err := json.Marshal(message)
	if err != nil {
		return DiskMessage{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), bytes); err != nil {
			return err
		}
		return txn.Set([]byte(messageIDPrefix+message.ID), []byte(key))
	})
	return message, err
}

// GetMessages retrieves the messages of a group ordered by creation time ascending.
// Thanks to the padded timestamp in the key, a prefix scan is naturally sorted.
// With a limit, only the most recent messages are kept.
func (m MessageRepository) GetMessages(groupID string) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%s:", messagePrefix, groupID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek after the most recent possible key, then walk back in time
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug("Maximum of messages reached", "group_id", groupID, "limit", *m.limitMessages)
				break
			}
			var message DiskMessage
			if err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reverse iteration gave the newest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (m MessageRepository) GetMessageByID(id string) (DiskMessage, error) {
	var message DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(messageIDPrefix + id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &message)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return DiskMessage{}, errors.ErrNotFound
	}
	return message, err
}

func messageKey(message DiskMessage) string {
	return fmt.Sprintf("%s%s:%019d:%s",
		messagePrefix,
		message.GroupID,
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}
