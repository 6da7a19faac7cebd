package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidPayload     = fmt.Errorf("invalid event payload")
	ErrNotConfigured      = fmt.Errorf("backend not configured")
	ErrTimeout            = fmt.Errorf("request timed out")
	ErrNotFound           = fmt.Errorf("row not found")
	ErrForbidden          = fmt.Errorf("row-level security violation")
	ErrInvalidCredentials = fmt.Errorf("invalid login credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidPassword    = fmt.Errorf("password must contain upper and lower case letters, a digit and a symbol")
	ErrInvalidHash        = fmt.Errorf("invalid hash format")
	ErrMissingAPIKey      = fmt.Errorf("no API key found in request")
	ErrEmptyWords         = fmt.Errorf("no censored word found")
	ErrInvalidToken       = fmt.Errorf("invalid access token")
	ErrEmptyMessage       = fmt.Errorf("message is empty")
	ErrInvalidCommand     = fmt.Errorf("invalid command")
	ErrSubscriptionClosed = fmt.Errorf("realtime subscription closed")
	ErrSessionClosed      = fmt.Errorf("session closed")
)

// Codes carried by BackendError. Remote codes follow the hosted backend
// (PostgREST and GoTrue), local ones are prefixed by the client.
const (
	CodeNotConfigured      = "BACKEND_NOT_CONFIGURED"
	CodeTimeout            = "REQUEST_TIMEOUT"
	CodeTransport          = "TRANSPORT_ERROR"
	CodeDecode             = "DECODE_ERROR"
	CodeNotFound           = "PGRST116"
	CodeBadRequest         = "PGRST100"
	CodeForbidden          = "42501"
	CodeInvalidCredentials = "invalid_grant"
	CodeUnauthorized       = "401"
	CodeCheckViolation     = "23514"
)

// BackendError is the structured failure returned by every backend call.
type BackendError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Status  int    `json:"-"`
}

func (e *BackendError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is maps backend codes onto the sentinel errors of this package.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrNotConfigured:
		return e.Code == CodeNotConfigured
	case ErrTimeout:
		return e.Code == CodeTimeout
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrForbidden:
		return e.Code == CodeForbidden
	case ErrInvalidCredentials:
		return e.Code == CodeInvalidCredentials
	case ErrInvalidToken:
		return e.Code == CodeUnauthorized
	}
	return false
}

func NotConfigured() *BackendError {
	return &BackendError{
		Code:    CodeNotConfigured,
		Message: "Backend not configured (missing env).",
		Details: "Set CHAT_BACKEND_URL and CHAT_BACKEND_ANON_KEY and restart.",
	}
}

// Transport wraps a network or context failure into a BackendError.
// Deadline errors become CodeTimeout.
func Transport(err error) *BackendError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return &BackendError{Code: CodeTimeout, Message: ErrTimeout.Error(), Details: err.Error()}
	}
	return &BackendError{Code: CodeTransport, Message: "network error", Details: err.Error()}
}

// UserMessage returns the text shown to the user for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stderrors.Is(err, ErrTimeout) || stderrors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout.Error()
	}
	var backendErr *BackendError
	if stderrors.As(err, &backendErr) {
		return backendErr.Message
	}
	return err.Error()
}
