package service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tractify/tractify-go/internal/backend"
	apperrors "github.com/tractify/tractify-go/internal/errors"
)

// Caller issues a single backend request. *backend.Client satisfies it.
type Caller interface {
	Do(ctx context.Context, call backend.Call) (*backend.Response, error)
}

// FetchOptions groups dependencies for Fetch.
type FetchOptions struct {
	Manager *SessionManager // required
	Client  Caller          // required
	Logger  *slog.Logger    // optional
}

// Fetch wraps backend calls with the current bearer token and a one-shot
// refresh-and-retry recovery when the backend reports 401. It reads token
// state from the SessionManager and delegates all mutation to it; Fetch
// itself never touches the session.
type Fetch struct {
	manager *SessionManager
	client  Caller
	logger  *slog.Logger
}

// NewFetch constructs a Fetch.
func NewFetch(opts FetchOptions) *Fetch {
	if opts.Manager == nil {
		panic("SessionManager is required")
	}
	if opts.Client == nil {
		panic("Caller is required")
	}
	return &Fetch{
		manager: opts.Manager,
		client:  opts.Client,
		logger:  opts.Logger,
	}
}

// Do issues the call with the current token. On a 401 it refreshes exactly
// once and reissues exactly once; a failed refresh tears the session down
// and the call is reported failed as a value. No second retry is attempted:
// one-shot recovery bounds latency and keeps persistent auth failure from
// masquerading as transient.
func (f *Fetch) Do(ctx context.Context, call backend.Call) (*backend.Response, error) {
	call.Token = f.manager.Token()

	resp, err := f.client.Do(ctx, call)
	if err == nil || !backend.IsStatus(err, http.StatusUnauthorized) {
		return resp, err
	}

	token, refreshErr := f.manager.Refresh(ctx)
	if refreshErr != nil || token == "" {
		if refreshErr == nil {
			// Refresh yielded nothing without an error; make sure the
			// session is gone before reporting failure.
			f.manager.Logout(ctx)
		}
		if f.logger != nil {
			f.logger.WarnContext(ctx, "request failed after refresh attempt",
				slog.String("method", call.Method),
				slog.String("path", call.Path),
			)
		}
		return nil, apperrors.TokenExpired(err)
	}

	call.Token = token
	return f.client.Do(ctx, call)
}

// JSON issues a call and decodes a 2xx reply into out when non-nil.
func (f *Fetch) JSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := f.Do(ctx, backend.Call{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if out != nil {
		return resp.Decode(out)
	}
	return nil
}
