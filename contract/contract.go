//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"ticket-chat/domain/chat"
	"ticket-chat/domain/event"
)

// Backend is the hosted backend as seen by the chat.
// Every call resolves to a result or a *errors.BackendError, never a panic.
type Backend interface {
	ListMemberships(ctx context.Context, userID chat.UserID) ([]chat.Membership, error)
	// ListMessages returns the history of a group ordered by creation time ascending.
	ListMessages(ctx context.Context, groupID chat.GroupID) ([]chat.Message, error)
	InsertMessage(ctx context.Context, message chat.NewMessage) (chat.MessageID, error)
	FetchMessageByID(ctx context.Context, id chat.MessageID) (chat.Message, error)
	Subscribe(ctx context.Context, groupID chat.GroupID) (Subscription, error)
	Unsubscribe(sub Subscription) error
}

// Subscription is a live realtime channel scoped to one group.
// Inserts is closed when the subscription ends, Err then tells why.
// Err is nil when the subscription was released on purpose.
type Subscription interface {
	GroupID() chat.GroupID
	Inserts() <-chan chat.MessageID
	Err() error
}

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (chat.AuthGrant, error)
	SignOut(ctx context.Context, accessToken string) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives events of the groups it subscribed to.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

type IRegistry interface {
	GetSinksForGroup(groupID chat.GroupID) []EventSink
	Subscribe(connectionID string, groupID chat.GroupID, sink EventSink)
	Unsubscribe(connectionID string, groupID chat.GroupID)
	UnsubscribeAll(connectionID string)
}
