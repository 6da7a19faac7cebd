//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"ticket-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	eventPrefix  = "event:"
	groupPrefix  = "group:"
	memberPrefix = "member:"
)

type IGroupRepository interface {
	SaveEvent(event DiskEvent) error
	SaveGroup(group DiskGroup) error
	AddMember(userID, groupID string) error
	ListMemberships(userID string) ([]DiskMembership, error)
	IsMember(userID, groupID string) (bool, error)
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) IGroupRepository {
	return &GroupRepository{db: db}
}

// DiskEvent is a ticketed event.
type DiskEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

// DiskGroup is the chat group of one event.
type DiskGroup struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
}

// DiskMembership is a membership joined with its group and event.
type DiskMembership struct {
	UserID string
	Group  DiskGroup
	Event  DiskEvent
}

func (r GroupRepository) SaveEvent(event DiskEvent) error {
	return set(r.db, eventPrefix+event.ID, event)
}

func (r GroupRepository) SaveGroup(group DiskGroup) error {
	return set(r.db, groupPrefix+group.ID, group)
}

// AddMember records that a user holds a ticket for the event of a group.
// The key "member:{user_id}:{group_id}" makes memberships of a user a prefix scan.
// Adding twice is a no-op.
func (r GroupRepository) AddMember(userID, groupID string) error {
	var group DiskGroup
	if err := get(r.db, groupPrefix+groupID, &group); err != nil {
		return fmt.Errorf("group %s: %w", groupID, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(userID, groupID), nil)
	})
}

// ListMemberships returns the groups of a user with their event,
// in key order. Dangling memberships are skipped.
func (r GroupRepository) ListMemberships(userID string) ([]DiskMembership, error) {
	var groupIDs []string
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Memberships live in the keys
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(memberPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			groupIDs = append(groupIDs, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	memberships := make([]DiskMembership, 0, len(groupIDs))
	for _, groupID := range groupIDs {
		var group DiskGroup
		if err := get(r.db, groupPrefix+groupID, &group); err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		var event DiskEvent
		if err := get(r.db, eventPrefix+group.EventID, &event); err != nil && !stderrors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		memberships = append(memberships, DiskMembership{UserID: userID, Group: group, Event: event})
	}
	return memberships, nil
}

func (r GroupRepository) IsMember(userID, groupID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(userID, groupID))
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func memberKey(userID, groupID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", memberPrefix, userID, groupID))
}
