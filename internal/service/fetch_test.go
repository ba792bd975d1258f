package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tractify/tractify-go/internal/backend"
	apperrors "github.com/tractify/tractify-go/internal/errors"
	mockauth "github.com/tractify/tractify-go/internal/mocks/auth"
)

func newFetchFixture(t *testing.T, caller Caller) (*Fetch, *SessionManager, *mockauth.MockProvider) {
	t.Helper()
	provider := mockauth.NewMockProvider()
	manager := NewSessionManager(SessionManagerOptions{
		Provider: provider,
		API:      mockauth.NewMockAuthAPI(),
	})
	fetch := NewFetch(FetchOptions{Manager: manager, Client: caller})
	return fetch, manager, provider
}

func ok(body string) mockauth.ScriptedResult {
	return mockauth.ScriptedResult{Resp: &backend.Response{Status: http.StatusOK, Body: []byte(body)}}
}

func status(code int) mockauth.ScriptedResult {
	return mockauth.ScriptedResult{
		Resp: &backend.Response{Status: code},
		Err:  &backend.StatusError{Code: code},
	}
}

func TestNewFetch_RequiresDeps(t *testing.T) {
	assert.Panics(t, func() { NewFetch(FetchOptions{Client: mockauth.NewScriptedCaller()}) })
	assert.Panics(t, func() {
		manager := NewSessionManager(SessionManagerOptions{
			Provider: mockauth.NewMockProvider(),
			API:      mockauth.NewMockAuthAPI(),
		})
		NewFetch(FetchOptions{Manager: manager})
	})
}

func TestFetch_AttachesCurrentToken(t *testing.T) {
	caller := mockauth.NewScriptedCaller(ok(`{}`))
	fetch, manager, _ := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())
	token := manager.Token()

	resp, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	calls := caller.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, token, calls[0].Token)
}

func TestFetch_AnonymousCallsGoOutBare(t *testing.T) {
	caller := mockauth.NewScriptedCaller(ok(`{}`))
	fetch, _, _ := newFetchFixture(t, caller)

	_, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/announcements"})
	require.NoError(t, err)

	calls := caller.Calls()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Token)
}

func TestFetch_RefreshesOnceOn401AndRetries(t *testing.T) {
	caller := mockauth.NewScriptedCaller(status(http.StatusUnauthorized), ok(`{"fine":true}`))
	fetch, manager, _ := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())
	staleToken := manager.Token()

	resp, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	calls := caller.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, staleToken, calls[0].Token)
	assert.NotEqual(t, staleToken, calls[1].Token)
	assert.Equal(t, manager.Token(), calls[1].Token)
}

func TestFetch_SecondConsecutive401IsNotRetriedAgain(t *testing.T) {
	caller := mockauth.NewScriptedCaller(status(http.StatusUnauthorized), status(http.StatusUnauthorized))
	fetch, manager, _ := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())

	_, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))

	// One original call plus exactly one retry.
	assert.Len(t, caller.Calls(), 2)
}

func TestFetch_RefreshFailureYieldsTokenExpired(t *testing.T) {
	caller := mockauth.NewScriptedCaller(status(http.StatusUnauthorized))
	fetch, manager, provider := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())

	provider.TokenFunc = func(_ context.Context, force bool) (string, error) {
		if force {
			return "", errors.New("refresh revoked")
		}
		return mockauth.MintToken("mock-user-1", "mock.user@example.com", time.Now().Add(time.Hour), 0)
	}

	resp, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsTokenExpired(err))

	// Failed refresh tears the session down; only the original call went out.
	assert.Len(t, caller.Calls(), 1)
	assert.Nil(t, manager.Current())
}

func TestFetch_Non401ErrorsPassThrough(t *testing.T) {
	caller := mockauth.NewScriptedCaller(status(http.StatusInternalServerError))
	fetch, manager, _ := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())

	_, err := fetch.Do(context.Background(), backend.Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusInternalServerError))
	assert.Len(t, caller.Calls(), 1)
	assert.NotNil(t, manager.Current())
}

func TestFetch_JSONDecodesReply(t *testing.T) {
	caller := mockauth.NewScriptedCaller(ok(`[{"id":"p1","trackingCode":"TC1","recipientId":"u1","status":"ARRIVED","arrivedAt":"2024-01-01T12:00:00Z"}]`))
	fetch, manager, _ := newFetchFixture(t, caller)

	result := manager.Login(context.Background(), "mock.user@example.com", "pw")
	require.True(t, result.OK())

	var out []map[string]any
	err := fetch.JSON(context.Background(), http.MethodGet, "/api/parcels", nil, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0]["id"])
}
