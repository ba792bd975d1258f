package oidc

// Package oidc implements the IdentityProvider port against an OIDC
// provider using the resource-owner password grant. Signature verification
// of ID tokens happens here; the backend independently verifies the bearer
// it receives.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/tractify/tractify-go/internal/ports"
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string

	// SignupURL and VerificationURL point at the provider's account
	// registration and verification-mail endpoints. OIDC core has no
	// signup flow; most self-hosted providers expose one next to the
	// issuer. Empty values disable the corresponding operation.
	SignupURL       string
	VerificationURL string

	// StoredRefreshToken seeds a persisted identity for restore-on-start
	// (kiosk deployments keep it in the environment). Optional.
	StoredRefreshToken string

	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// Provider implements ports.IdentityProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	signupURL       string
	verificationURL string
	storedRefresh   string

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	mu    sync.Mutex
	token *oauth2.Token
	cred  ports.Credential
	live  bool
}

// NewProvider creates a new OIDC provider. It performs a single discovery
// fetch against the issuer.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := config.Scope
	if scope == "" {
		scope = "openid profile email"
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:      httpClient,
		signupURL:       config.SignupURL,
		verificationURL: config.VerificationURL,
		storedRefresh:   config.StoredRefreshToken,
		oidcProvider:    op,
		verifier:        op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

// idTokenClaims is the subset of ID-token claims the session core consumes.
type idTokenClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// SignIn exchanges credentials via the resource-owner password grant and
// extracts the provider-level identity from the verified ID token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (ports.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return ports.Credential{}, mapOAuthError(err)
	}

	cred, err := p.identityFromToken(ctx, token)
	if err != nil {
		return ports.Credential{}, err
	}

	p.mu.Lock()
	p.token = token
	p.cred = cred
	p.live = true
	p.mu.Unlock()

	return cred, nil
}

// SignUp registers a credential with the provider's account endpoint.
func (p *Provider) SignUp(ctx context.Context, email, password string) (ports.Credential, error) {
	if p.signupURL == "" {
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeUnavailable,
			Err:  errors.New("provider signup endpoint not configured"),
		}
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return ports.Credential{}, fmt.Errorf("encode signup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.signupURL, strings.NewReader(string(body)))
	if err != nil {
		return ports.Credential{}, fmt.Errorf("build signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ports.Credential{}, &ports.ProviderError{Code: ports.CodeUnavailable, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // Nothing actionable on close failure.

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeEmailAlreadyInUse,
			Err:  fmt.Errorf("signup returned status %d", resp.StatusCode),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeUnavailable,
			Err:  fmt.Errorf("signup returned status %d", resp.StatusCode),
		}
	}

	var created struct {
		ID string `json:"id"`
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(&created); decodeErr != nil {
		return ports.Credential{}, fmt.Errorf("decode signup response: %w", decodeErr)
	}

	return ports.Credential{UserID: created.ID, Email: email}, nil
}

// SignOut clears the in-process identity. Provider-side token revocation is
// the backend's concern; the client simply forgets what it holds.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = nil
	p.cred = ports.Credential{}
	p.live = false
	return nil
}

// Token returns a bearer for the current identity, preferring the ID token
// when the openid scope granted one. force discards the cached access token
// so the refresh grant must run.
func (p *Provider) Token(ctx context.Context, force bool) (string, error) {
	p.mu.Lock()
	stored := p.token
	p.mu.Unlock()

	if stored == nil {
		return "", &ports.ProviderError{
			Code: ports.CodeRequiresRecentLogin,
			Err:  errors.New("no provider identity"),
		}
	}

	src := stored
	if force {
		// Keeping only the refresh token forces TokenSource to hit the
		// token endpoint instead of returning the cached access token.
		src = &oauth2.Token{RefreshToken: stored.RefreshToken}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	fresh, err := p.config.TokenSource(ctx, src).Token()
	if err != nil {
		return "", mapOAuthError(err)
	}

	p.mu.Lock()
	p.token = fresh
	p.mu.Unlock()

	return bearerFromToken(fresh), nil
}

// SendVerificationEmail triggers the provider's verification mail.
func (p *Provider) SendVerificationEmail(ctx context.Context, cred ports.Credential) error {
	if p.verificationURL == "" {
		return &ports.ProviderError{
			Code: ports.CodeUnavailable,
			Err:  errors.New("provider verification endpoint not configured"),
		}
	}

	body, err := json.Marshal(map[string]string{"email": cred.Email})
	if err != nil {
		return fmt.Errorf("encode verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.verificationURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &ports.ProviderError{Code: ports.CodeUnavailable, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // Nothing actionable on close failure.

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ports.ProviderError{
			Code: ports.CodeUnavailable,
			Err:  fmt.Errorf("verification send returned status %d", resp.StatusCode),
		}
	}
	return nil
}

// AwaitIdentity resolves the persisted provider identity exactly once. An
// in-process identity wins; otherwise a stored refresh token, when
// configured, is exchanged and validated against the userinfo endpoint.
func (p *Provider) AwaitIdentity(ctx context.Context) (ports.Credential, bool, error) {
	p.mu.Lock()
	if p.live {
		cred := p.cred
		p.mu.Unlock()
		return cred, true, nil
	}
	p.mu.Unlock()

	if p.storedRefresh == "" {
		return ports.Credential{}, false, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: p.storedRefresh}).Token()
	if err != nil {
		return ports.Credential{}, false, mapOAuthError(err)
	}

	cred, err := p.identityFromToken(ctx, token)
	if err != nil {
		return ports.Credential{}, false, err
	}

	p.mu.Lock()
	p.token = token
	p.cred = cred
	p.live = true
	p.mu.Unlock()

	return cred, true, nil
}

// identityFromToken extracts and verifies the identity carried by a token
// response, falling back to the userinfo endpoint when no ID token came back.
func (p *Provider) identityFromToken(ctx context.Context, token *oauth2.Token) (ports.Credential, error) {
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		idTok, err := p.verifier.Verify(ctx, raw)
		if err != nil {
			return ports.Credential{}, fmt.Errorf("verify id_token: %w", err)
		}
		var claims idTokenClaims
		if claimsErr := idTok.Claims(&claims); claimsErr != nil {
			return ports.Credential{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
		}
		return ports.Credential{
			UserID:        claims.Sub,
			Email:         claims.Email,
			EmailVerified: claims.EmailVerified,
		}, nil
	}

	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return ports.Credential{}, fmt.Errorf("fetch user info: %w", err)
	}
	var claims idTokenClaims
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return ports.Credential{}, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return ports.Credential{
		UserID:        claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// bearerFromToken prefers the ID token as the backend bearer; the backend
// verifies identity claims, which the access token may not carry.
func bearerFromToken(token *oauth2.Token) string {
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		return raw
	}
	return token.AccessToken
}

// oauthErrorBody is the RFC 6749 error shape returned by token endpoints.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// mapOAuthError folds oauth2 transport failures into provider error codes.
// Token-endpoint rejections of the grant map to the credential codes; the
// session layer collapses those further.
func mapOAuthError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return &ports.ProviderError{Code: ports.CodeUnavailable, Err: err}
	}

	var body oauthErrorBody
	_ = json.Unmarshal(re.Body, &body)

	switch body.Error {
	case "invalid_grant":
		return &ports.ProviderError{Code: ports.CodeInvalidCredential, Err: err}
	case "invalid_request":
		return &ports.ProviderError{Code: ports.CodeInvalidEmail, Err: err}
	}

	switch re.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return &ports.ProviderError{Code: ports.CodeInvalidCredential, Err: err}
	default:
		return &ports.ProviderError{Code: ports.CodeUnavailable, Err: err}
	}
}
