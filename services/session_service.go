package services

import (
	"context"
	"log/slog"
	"strings"
	"ticket-chat/contract"
	"ticket-chat/session"
	"time"
)

// SessionService signs the user in and out of the backend.
type SessionService struct {
	authenticator contract.Authenticator
	timeout       time.Duration
	log           *slog.Logger
}

func NewSessionService(authenticator contract.Authenticator, timeout time.Duration, log *slog.Logger) *SessionService {
	return &SessionService{authenticator: authenticator, timeout: timeout, log: log}
}

func (s *SessionService) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	grant, err := s.authenticator.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.log.Warn("Sign in failed", "error", err)
		return nil, err
	}
	current := session.New(grant)
	s.log.Info("Signed in", "user_id", current.UserID())
	return current, nil
}

// SignOut revokes the access token and closes the session.
// The session is closed even when the revocation fails.
func (s *SessionService) SignOut(ctx context.Context, current *session.Session) error {
	if current == nil {
		return nil
	}
	token := current.AccessToken()
	current.Close()
	if token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.authenticator.SignOut(ctx, token); err != nil {
		s.log.Warn("Sign out failed", "user_id", current.UserID(), "error", err)
		return err
	}
	return nil
}
