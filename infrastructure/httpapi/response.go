package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"ticket-chat/errors"
)

const singleObject = "application/vnd.pgrst.object+json"

// authError is the error body of the auth endpoints.
type authError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes the body the hosted backend answers for err.
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, toBackendError(err, status))
}

// fail picks the status and body matching a service error.
func fail(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, authError{
			Error:            errors.CodeInvalidCredentials,
			ErrorDescription: "Invalid login credentials",
		})
	case stderrors.Is(err, errors.ErrInvalidToken), stderrors.Is(err, errors.ErrMissingAPIKey):
		writeError(w, http.StatusUnauthorized, err)
	case stderrors.Is(err, errors.ErrForbidden):
		writeJSON(w, http.StatusForbidden, &errors.BackendError{
			Code:    errors.CodeForbidden,
			Message: "new row violates row-level security policy for table \"messages\"",
		})
	case stderrors.Is(err, errors.ErrNotFound):
		writeJSON(w, http.StatusNotAcceptable, &errors.BackendError{
			Code:    errors.CodeNotFound,
			Message: "JSON object requested, multiple (or no) rows returned",
			Details: "The result contains 0 rows",
		})
	case stderrors.Is(err, errors.ErrEmptyMessage), stderrors.Is(err, errors.ErrInvalidCommand):
		writeJSON(w, http.StatusBadRequest, &errors.BackendError{
			Code:    errors.CodeCheckViolation,
			Message: err.Error(),
		})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func toBackendError(err error, status int) *errors.BackendError {
	var backendErr *errors.BackendError
	if stderrors.As(err, &backendErr) {
		return backendErr
	}
	code := strconv.Itoa(status)
	if status == http.StatusBadRequest {
		code = errors.CodeBadRequest
	}
	return &errors.BackendError{Code: code, Message: err.Error()}
}

func wantsSingle(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), singleObject)
}
