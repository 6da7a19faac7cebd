package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultInitials = "U N"
	maxInitials     = 2
)

type UserID string

type User struct {
	ID    UserID
	Email string
}

// Profile is the display information of a user.
type Profile struct {
	FullName  string
	AvatarURL string
}

// Initials returns up to two upper-case initials of the full name.
func (p *Profile) Initials() string {
	name := defaultInitials
	if p != nil && strings.TrimSpace(p.FullName) != "" {
		name = p.FullName
	}
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == maxInitials {
			break
		}
	}
	return b.String()
}

// AuthGrant is the outcome of a successful sign-in.
type AuthGrant struct {
	AccessToken string
	User        User
	Profile     Profile
}
