package backend

import (
	"context"
	"net/http"
	"time"
)

// IdentityPayload is the canonical identity record returned by the backend
// login exchange. The backend, not the identity provider, is the source of
// truth for role and profile fields.
type IdentityPayload struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Position   string `json:"position,omitempty"`
	DormID     string `json:"dormId,omitempty"`
	RoomNumber string `json:"roomNumber,omitempty"`
}

// SignupRequest is the registration payload submitted to the backend before
// the provider credential is created.
type SignupRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role"`
	Position   string `json:"position,omitempty"`
	DormID     string `json:"dormId,omitempty"`
	RoomNumber string `json:"roomNumber,omitempty"`
}

// SignupResponse reports the backend's registration outcome.
type SignupResponse struct {
	Status string `json:"status"`
}

// logoutTimeout bounds the best-effort logout notification.
const logoutTimeout = 5 * time.Second

// LoginExchange trades a provider token for the canonical identity record.
// The body is deliberately empty; the bearer header carries the identity.
func (c *Client) LoginExchange(ctx context.Context, token string) (IdentityPayload, error) {
	var payload IdentityPayload
	resp, err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Token:  token,
	})
	if err != nil {
		return IdentityPayload{}, err
	}
	if decodeErr := resp.Decode(&payload); decodeErr != nil {
		return IdentityPayload{}, decodeErr
	}
	return payload, nil
}

// Signup registers a new account with the backend.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (SignupResponse, error) {
	var out SignupResponse
	if err := c.Post(ctx, "/api/auth/signup", "", req, &out); err != nil {
		return SignupResponse{}, err
	}
	return out, nil
}

// NotifyLogout tells the backend the session is ending. Best-effort: the
// call is bounded by its own short timeout and errors are returned for
// logging only. Callers must not let a failure block local cleanup.
func (c *Client) NotifyLogout(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, logoutTimeout)
	defer cancel()

	_, err := c.Do(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
		Token:  token,
	})
	return err
}
