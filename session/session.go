// Package session holds the authenticated state of the client.
// A Session is created at sign-in and closed at sign-out, there is no global auth state.
package session

import (
	"strings"
	"sync"
	"ticket-chat/auth"
	"ticket-chat/domain/chat"
	"time"
)

const anonymousName = "User"

type Session struct {
	mu          sync.RWMutex
	user        chat.User
	profile     chat.Profile
	accessToken string
	expiresAt   time.Time
	closed      bool
}

// New opens a session from a sign-in grant.
// The expiry is read from the access token when it carries one.
func New(grant chat.AuthGrant) *Session {
	s := &Session{
		user:        grant.User,
		profile:     grant.Profile,
		accessToken: grant.AccessToken,
	}
	if claims, err := auth.ReadUnverified(grant.AccessToken); err == nil {
		if claims.ExpiresAt != nil {
			s.expiresAt = claims.ExpiresAt.Time
		}
		if s.user.ID == "" {
			s.user.ID = chat.UserID(claims.Subject)
		}
	}
	return s
}

func (s *Session) User() chat.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) UserID() chat.UserID {
	return s.User().ID
}

func (s *Session) Profile() chat.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// AccessToken is empty once the session is closed.
func (s *Session) AccessToken() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ""
	}
	return s.accessToken
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// DisplayName returns the profile name, or "User" when the profile has none.
func (s *Session) DisplayName() string {
	if name := strings.TrimSpace(s.Profile().FullName); name != "" {
		return name
	}
	return anonymousName
}

// Active reports whether the session is still usable at the given time.
func (s *Session) Active(now time.Time) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.accessToken == "" {
		return false
	}
	return s.expiresAt.IsZero() || now.Before(s.expiresAt)
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
