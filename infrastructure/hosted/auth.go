package hosted

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
)

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	User        userInfo `json:"user"`
}

type userInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

// SignIn exchanges credentials for an access token, then loads the profile row.
// The user metadata of the token answer is used when the profile can't be read.
func (c *Client) SignIn(ctx context.Context, email, password string) (chat.AuthGrant, error) {
	var token tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   passwordGrant{Email: strings.TrimSpace(email), Password: password},
		token:  c.anonKey,
	}, &token)
	if err != nil {
		return chat.AuthGrant{}, err
	}
	if token.AccessToken == "" || token.User.ID == "" {
		return chat.AuthGrant{}, &errors.BackendError{Code: errors.CodeDecode, Message: "sign-in returned no session"}
	}

	grant := chat.AuthGrant{
		AccessToken: token.AccessToken,
		User:        chat.User{ID: chat.UserID(token.User.ID), Email: token.User.Email},
		Profile: chat.Profile{
			FullName:  token.User.Metadata.FullName,
			AvatarURL: token.User.Metadata.AvatarURL,
		},
	}

	var profile ProfileRow
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath + "profiles",
		query: url.Values{
			"select": {"id,full_name,avatar_url"},
			"id":     {eq(token.User.ID)},
		},
		single: true,
		token:  token.AccessToken,
	}, &profile)
	if err != nil {
		c.log.Warn("Profile not loaded, using user metadata", "user_id", token.User.ID, "error", err)
		return grant, nil
	}
	if profile.FullName != "" {
		grant.Profile.FullName = profile.FullName
	}
	if profile.AvatarURL != "" {
		grant.Profile.AvatarURL = profile.AvatarURL
	}
	return grant, nil
}

// SignOut revokes the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "logout",
		token:  accessToken,
	}, nil)
}
