package repositories

import (
	"testing"
	"ticket-chat/errors"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	// Given a user created with a mixed case email
	userID, err := repository.CreateUser(" Alice@Example.com", "$argon2id$hash")
	req.NoError(err)
	req.NotEmpty(userID)

	// When it is read back
	user, err := repository.GetUserByEmail("alice@example.com")

	// Then
	req.NoError(err)
	req.Equal(userID, user.ID)
	req.Equal("alice@example.com", user.Email)
	req.Equal("$argon2id$hash", user.PasswordHash)

	// And the same email cannot be registered twice
	_, err = repository.CreateUser("alice@example.com", "other")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repository.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestUserRepository_Profiles(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	req.NoError(repository.SaveProfile(Profile{UserID: "u1", FullName: "Alice Martin"}))

	profile, err := repository.GetProfile("u1")
	req.NoError(err)
	req.Equal("Alice Martin", profile.FullName)

	_, err = repository.GetProfile("u2")
	req.ErrorIs(err, errors.ErrNotFound)
}
