package main

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"ticket-chat/errors"
	"ticket-chat/repositories"
	"ticket-chat/services"
	"time"

	"github.com/samber/lo"
)

// seeded describes one account after seeding.
type seeded struct {
	Email    string
	UserID   string
	FullName string
	Password string
	Groups   []string
	Created  bool
}

// Seeder fills the dev backend store. Running it twice is harmless:
// existing accounts are kept and fixed ids overwrite the same rows.
type Seeder struct {
	authService services.IAuthService
	users       repositories.IUserRepository
	groups      repositories.IGroupRepository
	messages    repositories.IMessageRepository
	blacklist   repositories.BlacklistRepository
	now         func() time.Time
	log         *slog.Logger
}

func (s Seeder) Run(data dataset, blacklist []string) ([]seeded, error) {
	for _, event := range data.Events {
		if err := s.groups.SaveEvent(event); err != nil {
			return nil, fmt.Errorf("saving event %s: %w", event.ID, err)
		}
	}
	for _, group := range data.Groups {
		if err := s.groups.SaveGroup(group); err != nil {
			return nil, fmt.Errorf("saving group %s: %w", group.ID, err)
		}
	}

	accounts := make([]seeded, 0, len(data.Users))
	ids := make(map[string]string, len(data.Users))
	for _, user := range data.Users {
		account, err := s.account(user)
		if err != nil {
			return nil, err
		}
		for _, groupID := range user.Groups {
			if err := s.groups.AddMember(account.UserID, groupID); err != nil {
				return nil, fmt.Errorf("adding %s to %s: %w", user.Email, groupID, err)
			}
		}
		ids[user.Email] = account.UserID
		accounts = append(accounts, account)
	}

	now := s.now().UTC()
	for _, message := range data.Messages {
		authorID, ok := ids[message.Author]
		if !ok {
			return nil, fmt.Errorf("message %s: unknown author %s", message.ID, message.Author)
		}
		// The creation time is part of the storage key, a stored message is left as is
		if _, err := s.messages.GetMessageByID(message.ID); err == nil {
			continue
		} else if !stderrors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("reading message %s: %w", message.ID, err)
		}
		_, err := s.messages.StoreMessage(repositories.DiskMessage{
			ID:        message.ID,
			GroupID:   message.GroupID,
			AuthorID:  authorID,
			Content:   message.Content,
			CreatedAt: now.Add(-message.Ago),
		})
		if err != nil {
			return nil, fmt.Errorf("storing message %s: %w", message.ID, err)
		}
	}

	words := lo.Filter(lo.Map(blacklist, func(w string, _ int) string { return strings.TrimSpace(w) }),
		func(w string, _ int) bool { return w != "" })
	if len(words) > 0 {
		if err := s.blacklist.AddWords(words...); err != nil {
			return nil, fmt.Errorf("saving blacklist: %w", err)
		}
	}
	s.log.Info("Seed done", "users", len(accounts), "messages", len(data.Messages), "blacklist", len(words))
	return accounts, nil
}

func (s Seeder) account(user seedUser) (seeded, error) {
	account := seeded{Email: user.Email, FullName: user.FullName, Password: user.Password, Groups: user.Groups}
	userID, err := s.authService.Register(user.Email, user.Password, user.FullName)
	switch {
	case err == nil:
		account.UserID, account.Created = userID, true
		return account, nil
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		existing, err := s.users.GetUserByEmail(user.Email)
		if err != nil {
			return seeded{}, fmt.Errorf("reading %s: %w", user.Email, err)
		}
		s.log.Debug("User already seeded", "email", user.Email)
		account.UserID = existing.ID
		return account, nil
	default:
		return seeded{}, fmt.Errorf("registering %s: %w", user.Email, err)
	}
}
