package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tractify/tractify-go/internal/errors"
)

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)

	client, err := NewClient(ClientOptions{BaseURL: "http://localhost:3000/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", client.baseURL)
}

func TestDo_SetsRequestHeaders(t *testing.T) {
	var seen http.Header
	var seenMethod, seenPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		seenMethod = r.Method
		seenPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Do(context.Background(), Call{
		Method: http.MethodPost,
		Path:   "/api/parcels",
		Token:  "tok-123",
		Body:   map[string]string{"trackingCode": "TC1"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, seenMethod)
	assert.Equal(t, "/api/parcels", seenPath)
	assert.Equal(t, "Bearer tok-123", seen.Get("Authorization"))
	assert.Equal(t, "application/json", seen.Get("Content-Type"))
	assert.Equal(t, "application/json", seen.Get("Accept"))
	assert.NotEmpty(t, seen.Get("X-Request-Id"))
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/api/announcements"})
	require.NoError(t, err)
	assert.Empty(t, seen.Get("Authorization"))
}

func TestDo_Non2xxReturnsStatusErrorWithResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"expired"}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusForbidden))

	// The response travels with the error so callers can inspect the body.
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.JSONEq(t, `{"error":"expired"}`, string(resp.Body))
}

func TestDo_TransportFailureIsNetworkError(t *testing.T) {
	client, err := NewClient(ClientOptions{
		BaseURL:    "http://127.0.0.1:1",
		HTTPClient: &http.Client{Timeout: 200 * time.Millisecond},
	})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), Call{Method: http.MethodGet, Path: "/api/parcels"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsNetwork(err))
	assert.False(t, IsStatus(err, http.StatusUnauthorized))
}

func TestConvenienceVerbs(t *testing.T) {
	type echo struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(echo{Method: r.Method, Path: r.URL.Path})
	}))
	defer srv.Close()

	client, err := NewClient(ClientOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	var out echo
	require.NoError(t, client.Get(ctx, "/api/parcels", "tok", &out))
	assert.Equal(t, echo{Method: http.MethodGet, Path: "/api/parcels"}, out)

	require.NoError(t, client.Post(ctx, "/api/parcels", "tok", map[string]string{}, &out))
	assert.Equal(t, http.MethodPost, out.Method)

	require.NoError(t, client.Put(ctx, "/api/parcels/p1", "tok", map[string]string{}, &out))
	assert.Equal(t, http.MethodPut, out.Method)

	require.NoError(t, client.Patch(ctx, "/api/parcels/p1", "tok", map[string]string{}, &out))
	assert.Equal(t, http.MethodPatch, out.Method)

	require.NoError(t, client.Delete(ctx, "/api/parcels/p1", "tok"))
}

func TestResponse_Decode(t *testing.T) {
	resp := &Response{Status: 200, Body: []byte(`{"id":"p1"}`)}

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "p1", out.ID)

	empty := &Response{Status: 204}
	assert.Error(t, empty.Decode(&out))

	garbage := &Response{Status: 200, Body: []byte(`{`)}
	assert.Error(t, garbage.Decode(&out))
}

func TestResourcePath(t *testing.T) {
	assert.Equal(t, "/api/parcels", ResourcePath("parcels"))
	assert.Equal(t, "/api/parcels/p1", ResourcePath("parcels", "p1"))
	assert.Equal(t, "/api/parcels/p1/trash", ResourcePath("parcels", "p1", "trash"))
	assert.Equal(t, "/api/members/a%2Fb", ResourcePath("members", "a/b"))
	assert.Equal(t, "/api/staff/s1", ResourcePath("/staff/", "s1"))
}
