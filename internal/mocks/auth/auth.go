package auth

// Package auth contains simple hand-written test doubles for the session
// ports. These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tractify/tractify-go/internal/backend"
	"github.com/tractify/tractify-go/internal/domain/nav"
	"github.com/tractify/tractify-go/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockProvider)(nil)
	_ ports.SessionCache     = (*MemorySessionCache)(nil)
	_ ports.Navigator        = (*RecordingNavigator)(nil)
)

// MockProvider simulates an identity provider for tests. Every method can be
// overridden per test through its Func field; unset methods fall back to
// deterministic defaults built from DefaultCredential.
type MockProvider struct {
	SignInFunc                func(ctx context.Context, email, password string) (ports.Credential, error)
	SignUpFunc                func(ctx context.Context, email, password string) (ports.Credential, error)
	SignOutFunc               func(ctx context.Context) error
	TokenFunc                 func(ctx context.Context, force bool) (string, error)
	SendVerificationEmailFunc func(ctx context.Context, cred ports.Credential) error
	AwaitIdentityFunc         func(ctx context.Context) (ports.Credential, bool, error)

	// DefaultCredential backs the default SignIn/AwaitIdentity behavior.
	DefaultCredential ports.Credential
	// TokenTTL sets the exp claim on default-minted tokens. Default 1h.
	TokenTTL time.Duration

	mu          sync.Mutex
	tokenCount  int
	signOutDone int
}

// NewMockProvider creates a MockProvider with a verified default credential.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		DefaultCredential: ports.Credential{
			UserID:        "mock-user-1",
			Email:         "mock.user@example.com",
			EmailVerified: true,
		},
	}
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (ports.Credential, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return m.DefaultCredential, nil
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (ports.Credential, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password)
	}
	return ports.Credential{UserID: "mock-new-user", Email: email}, nil
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.signOutDone++
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return nil
}

// SignOutCalls reports how many times SignOut ran.
func (m *MockProvider) SignOutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signOutDone
}

// Token mints a real HS256 token by default so claim decoding works in
// tests. Each mint embeds a counter claim, making rotation observable.
func (m *MockProvider) Token(ctx context.Context, force bool) (string, error) {
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx, force)
	}

	m.mu.Lock()
	m.tokenCount++
	n := m.tokenCount
	m.mu.Unlock()

	ttl := m.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return MintToken(m.DefaultCredential.UserID, m.DefaultCredential.Email, time.Now().Add(ttl), n)
}

// TokenCalls reports how many default mints happened.
func (m *MockProvider) TokenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCount
}

func (m *MockProvider) SendVerificationEmail(ctx context.Context, cred ports.Credential) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, cred)
	}
	return nil
}

func (m *MockProvider) AwaitIdentity(ctx context.Context) (ports.Credential, bool, error) {
	if m.AwaitIdentityFunc != nil {
		return m.AwaitIdentityFunc(ctx)
	}
	return ports.Credential{}, false, nil
}

// MintToken signs a well-formed test token with the given subject, email and
// expiry. The seq claim distinguishes successive mints.
func MintToken(sub, email string, exp time.Time, seq int) (string, error) {
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
		"seq":   seq,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		return "", fmt.Errorf("mint test token: %w", err)
	}
	return token, nil
}

// MemorySessionCache is an in-memory ports.SessionCache with per-method
// error injection for exercising best-effort paths.
type MemorySessionCache struct {
	SaveErr  error
	LoadErr  error
	ClearErr error

	mu    sync.Mutex
	snap  ports.Snapshot
	set   bool
	saves int
}

func (c *MemorySessionCache) Save(_ context.Context, snap ports.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.SaveErr != nil {
		return c.SaveErr
	}
	c.snap = snap
	c.set = true
	return nil
}

func (c *MemorySessionCache) Load(_ context.Context) (ports.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadErr != nil {
		return ports.Snapshot{}, c.LoadErr
	}
	if !c.set {
		return ports.Snapshot{}, fmt.Errorf("no session snapshot")
	}
	return c.snap, nil
}

func (c *MemorySessionCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ClearErr != nil {
		return c.ClearErr
	}
	c.snap = ports.Snapshot{}
	c.set = false
	return nil
}

// Snapshot returns the stored snapshot and whether one is present.
func (c *MemorySessionCache) Snapshot() (ports.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.set
}

// SaveCalls reports how many Save attempts were made, including failed ones.
func (c *MemorySessionCache) SaveCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

// NavCall records one navigation request.
type NavCall struct {
	Route  nav.Route
	Params map[string]string
}

// RecordingNavigator captures navigation requests for assertion.
type RecordingNavigator struct {
	GoErr error

	mu    sync.Mutex
	calls []NavCall
}

func (n *RecordingNavigator) Go(route nav.Route, params map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, NavCall{Route: route, Params: params})
	return n.GoErr
}

// Calls returns a copy of the recorded navigations.
func (n *RecordingNavigator) Calls() []NavCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NavCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// MockAuthAPI is a test double for the backend auth surface. Unset Func
// fields fall back to a fixed resident identity.
type MockAuthAPI struct {
	LoginExchangeFunc func(ctx context.Context, token string) (backend.IdentityPayload, error)
	SignupFunc        func(ctx context.Context, req backend.SignupRequest) (backend.SignupResponse, error)
	NotifyLogoutFunc  func(ctx context.Context, token string) error

	// DefaultPayload backs the default LoginExchange behavior.
	DefaultPayload backend.IdentityPayload

	mu            sync.Mutex
	exchangeCalls int
	signupCalls   []backend.SignupRequest
	logoutTokens  []string
}

// NewMockAuthAPI creates a MockAuthAPI answering with a resident identity.
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{
		DefaultPayload: backend.IdentityPayload{
			UserID:     "mock-user-1",
			Email:      "mock.user@example.com",
			FirstName:  "Mock",
			LastName:   "User",
			Role:       "RESIDENT",
			DormID:     "dorm-a",
			RoomNumber: "101",
		},
	}
}

func (m *MockAuthAPI) LoginExchange(ctx context.Context, token string) (backend.IdentityPayload, error) {
	m.mu.Lock()
	m.exchangeCalls++
	m.mu.Unlock()
	if m.LoginExchangeFunc != nil {
		return m.LoginExchangeFunc(ctx, token)
	}
	return m.DefaultPayload, nil
}

// ExchangeCalls reports how many login exchanges ran.
func (m *MockAuthAPI) ExchangeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exchangeCalls
}

func (m *MockAuthAPI) Signup(ctx context.Context, req backend.SignupRequest) (backend.SignupResponse, error) {
	m.mu.Lock()
	m.signupCalls = append(m.signupCalls, req)
	m.mu.Unlock()
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return backend.SignupResponse{Status: "pending-verification"}, nil
}

// SignupCalls returns a copy of the recorded signup requests.
func (m *MockAuthAPI) SignupCalls() []backend.SignupRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.SignupRequest, len(m.signupCalls))
	copy(out, m.signupCalls)
	return out
}

func (m *MockAuthAPI) NotifyLogout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.logoutTokens = append(m.logoutTokens, token)
	m.mu.Unlock()
	if m.NotifyLogoutFunc != nil {
		return m.NotifyLogoutFunc(ctx, token)
	}
	return nil
}

// LogoutTokens returns the tokens passed to NotifyLogout.
func (m *MockAuthAPI) LogoutTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.logoutTokens))
	copy(out, m.logoutTokens)
	return out
}

// ScriptedCall records one request seen by a ScriptedCaller.
type ScriptedCall struct {
	Call backend.Call
}

// ScriptedResult is one queued reply for a ScriptedCaller.
type ScriptedResult struct {
	Resp *backend.Response
	Err  error
}

// ScriptedCaller replays a fixed sequence of results and records every call
// it receives. Once the script runs out it keeps returning the last result.
type ScriptedCaller struct {
	mu      sync.Mutex
	script  []ScriptedResult
	calls   []backend.Call
	nextIdx int
}

// NewScriptedCaller builds a caller that replays results in order.
func NewScriptedCaller(results ...ScriptedResult) *ScriptedCaller {
	return &ScriptedCaller{script: results}
}

func (s *ScriptedCaller) Do(_ context.Context, call backend.Call) (*backend.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if len(s.script) == 0 {
		return nil, fmt.Errorf("scripted caller has no results")
	}
	idx := s.nextIdx
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.nextIdx++
	res := s.script[idx]
	return res.Resp, res.Err
}

// Calls returns a copy of the recorded requests.
func (s *ScriptedCaller) Calls() []backend.Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Call, len(s.calls))
	copy(out, s.calls)
	return out
}
