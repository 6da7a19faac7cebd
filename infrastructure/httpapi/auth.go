package httpapi

import (
	"encoding/json"
	"net/http"
	"ticket-chat/auth"
	"time"
)

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        userInfo `json:"user"`
}

type userInfo struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Role     string       `json:"role"`
	Metadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Token handles POST /auth/v1/token?grant_type=password
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if grantType := r.URL.Query().Get("grant_type"); grantType != "password" {
		writeJSON(w, http.StatusBadRequest, authError{
			Error:            "unsupported_grant_type",
			ErrorDescription: "only the password grant is supported",
		})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var grant passwordGrant
	if err := json.NewDecoder(r.Body).Decode(&grant); err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: "invalid request body"})
		return
	}

	result, err := h.authService.Login(grant.Email, grant.Password)
	if err != nil {
		h.log.Info("Sign-in refused", "error", err)
		fail(w, err)
		return
	}
	h.log.Debug("User signed in", "user_id", result.User.ID)

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(result.ExpiresAt).Seconds()),
		ExpiresAt:   result.ExpiresAt.Unix(),
		User: userInfo{
			ID:    result.User.ID,
			Email: result.User.Email,
			Role:  "authenticated",
			Metadata: userMetadata{
				FullName:  result.Profile.FullName,
				AvatarURL: result.Profile.AvatarURL,
			},
		},
	})
}

// Logout handles POST /auth/v1/logout
// Access tokens are stateless, they stay valid until expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	h.log.Debug("User signed out", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
