// Package unconfigured is the backend used when the hosted backend settings are missing.
// Every call fails with errors.NotConfigured.
package unconfigured

import (
	"context"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
)

type Backend struct{}

var (
	_ contract.Backend       = Backend{}
	_ contract.Authenticator = Backend{}
)

func (Backend) ListMemberships(context.Context, chat.UserID) ([]chat.Membership, error) {
	return nil, errors.NotConfigured()
}

func (Backend) ListMessages(context.Context, chat.GroupID) ([]chat.Message, error) {
	return nil, errors.NotConfigured()
}

func (Backend) InsertMessage(context.Context, chat.NewMessage) (chat.MessageID, error) {
	return "", errors.NotConfigured()
}

func (Backend) FetchMessageByID(context.Context, chat.MessageID) (chat.Message, error) {
	return chat.Message{}, errors.NotConfigured()
}

func (Backend) Subscribe(context.Context, chat.GroupID) (contract.Subscription, error) {
	return nil, errors.NotConfigured()
}

func (Backend) Unsubscribe(contract.Subscription) error {
	return nil
}

func (Backend) SignIn(context.Context, string, string) (chat.AuthGrant, error) {
	return chat.AuthGrant{}, errors.NotConfigured()
}

func (Backend) SignOut(context.Context, string) error {
	return nil
}
