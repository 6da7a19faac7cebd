package services

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"ticket-chat/auth"
	"ticket-chat/errors"
	"ticket-chat/repositories"
	"time"
)

type IAuthService interface {
	Login(email, password string) (Grant, error)
	Register(email, password, fullName string) (string, error)
	Verify(accessToken string) (string, error)
}

// AuthService is the credential store of the development backend.
type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
	log            *slog.Logger
}

// Grant is what a successful login hands back to the client.
type Grant struct {
	AccessToken string
	ExpiresAt   time.Time
	User        repositories.User
	Profile     repositories.Profile
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer, log *slog.Logger) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer, log: log}
}

// Register validates and stores a new account with its profile.
// It returns the id of the account.
func (s *AuthService) Register(email, password, fullName string) (string, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}

	// Business rules are checked before any expensive cryptographic operation
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// The repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", err
	}

	if err := s.userRepository.SaveProfile(repositories.Profile{UserID: userID, FullName: fullName}); err != nil {
		return "", err
	}
	s.log.Debug("User registered", "user_id", userID)
	return userID, nil
}

func (s *AuthService) Login(email, password string) (Grant, error) {
	if err := auth.ValidateSignIn(auth.SignInRequest{Email: email, Password: password}); err != nil {
		return Grant{}, errors.ErrInvalidCredentials
	}

	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Same error for unknown users and wrong passwords
		return Grant{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Grant{}, errors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.GenerateToken(user.ID, user.Email)
	if err != nil {
		return Grant{}, errors.ErrTokenGeneration
	}

	profile, err := s.userRepository.GetProfile(user.ID)
	if err != nil && !stderrors.Is(err, errors.ErrNotFound) {
		return Grant{}, err
	}
	profile.UserID = user.ID

	return Grant{AccessToken: token, ExpiresAt: expiresAt, User: user, Profile: profile}, nil
}

// Verify returns the user id carried by a valid access token.
func (s *AuthService) Verify(accessToken string) (string, error) {
	claims, err := s.issuer.ValidateToken(accessToken)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
