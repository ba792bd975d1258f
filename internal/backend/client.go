package backend

// Package backend is the stateless HTTP call layer against the Tractify
// REST API. It attaches bearer tokens, encodes/decodes JSON, and classifies
// transport failures. It holds no session state; token lifecycle belongs to
// the service layer.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	apperrors "github.com/tractify/tractify-go/internal/errors"
)

const defaultTimeout = 30 * time.Second

// Client performs REST calls against a single backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration // zero means defaultTimeout
	Logger     *slog.Logger  // optional
	HTTPClient *http.Client  // optional, overrides Timeout when set
}

// NewClient constructs a backend client. The base URL is required.
func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("new cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Call describes a single backend request.
type Call struct {
	Method string
	// Path is relative to the base URL, e.g. "/api/parcels/42/confirm".
	Path string
	// Token, when non-empty, is attached as a bearer Authorization header.
	Token string
	// Body, when non-nil, is JSON-encoded as the request body.
	Body any
	// Header carries extra headers; Authorization and Content-Type are managed.
	Header http.Header
}

// Response is the decoded-enough view of a backend reply.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx backend reply.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Do issues the call and returns the response on any HTTP status, wrapping
// non-2xx statuses in a StatusError. Transport failures come back as
// network-kind AppErrors; the caller never sees a raw net error.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	var bodyReader io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	target := c.baseURL + "/" + strings.TrimLeft(call.Path, "/")
	req, err := http.NewRequestWithContext(ctx, call.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "backend call failed",
				slog.String("method", call.Method),
				slog.String("path", call.Path),
				slog.Any("error", err),
			)
		}
		return nil, apperrors.Network(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Drained below; close failure is unactionable.

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network(fmt.Errorf("read response: %w", err))
	}

	if c.logger != nil {
		c.logger.DebugContext(ctx, "backend call",
			slog.String("method", call.Method),
			slog.String("path", call.Path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
	}

	out := &Response{Status: resp.StatusCode, Body: payload}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &StatusError{Code: resp.StatusCode, Body: payload}
	}
	return out, nil
}

// Get issues a GET against a resource path and decodes the reply into out.
func (c *Client) Get(ctx context.Context, path, token string, out any) error {
	return c.call(ctx, Call{Method: http.MethodGet, Path: path, Token: token}, out)
}

// Post issues a POST with a JSON body and decodes the reply into out when non-nil.
func (c *Client) Post(ctx context.Context, path, token string, body, out any) error {
	return c.call(ctx, Call{Method: http.MethodPost, Path: path, Token: token, Body: body}, out)
}

// Put issues a PUT with a JSON body and decodes the reply into out when non-nil.
func (c *Client) Put(ctx context.Context, path, token string, body, out any) error {
	return c.call(ctx, Call{Method: http.MethodPut, Path: path, Token: token, Body: body}, out)
}

// Patch issues a PATCH with a JSON body and decodes the reply into out when non-nil.
func (c *Client) Patch(ctx context.Context, path, token string, body, out any) error {
	return c.call(ctx, Call{Method: http.MethodPatch, Path: path, Token: token, Body: body}, out)
}

// Delete issues a DELETE against a resource path.
func (c *Client) Delete(ctx context.Context, path, token string) error {
	return c.call(ctx, Call{Method: http.MethodDelete, Path: path, Token: token}, nil)
}

func (c *Client) call(ctx context.Context, call Call, out any) error {
	resp, err := c.Do(ctx, call)
	if err != nil {
		return err
	}
	if out != nil {
		return resp.Decode(out)
	}
	return nil
}

// ResourcePath joins /api/<resource>[/:id[/action]] segments, escaping each.
func ResourcePath(resource string, segments ...string) string {
	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, "api", strings.Trim(resource, "/"))
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return "/" + strings.Join(parts, "/")
}
