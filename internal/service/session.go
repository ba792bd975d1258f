package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tractify/tractify-go/internal/backend"
	"github.com/tractify/tractify-go/internal/domain/nav"
	"github.com/tractify/tractify-go/internal/domain/session"
	apperrors "github.com/tractify/tractify-go/internal/errors"
	"github.com/tractify/tractify-go/internal/ports"
)

// State names the session lifecycle phase. The machine cycles for the life
// of the process; there is no terminal state.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// AuthAPI defines the minimal backend behavior the session core needs.
// *backend.Client satisfies it.
type AuthAPI interface {
	LoginExchange(ctx context.Context, token string) (backend.IdentityPayload, error)
	Signup(ctx context.Context, req backend.SignupRequest) (backend.SignupResponse, error)
	NotifyLogout(ctx context.Context, token string) error
}

// SessionConfig tunes restore behavior.
type SessionConfig struct {
	// RestoreTimeout bounds the one-shot wait for a provider identity on
	// cold start. Default 5s.
	RestoreTimeout time.Duration
	// RestoreBackoff is the fixed wait before the single backend-exchange
	// retry during restore. Default 500ms. This is a cold-start tolerance,
	// not a general retry policy.
	RestoreBackoff time.Duration
}

// SessionManagerDeps groups the optional collaborators.
type SessionManagerDeps struct {
	Cache     ports.SessionCache // optional: snapshot persisted across runs
	Navigator ports.Navigator    // optional: receives navigation requests
	Logger    *slog.Logger       // optional
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Provider ports.IdentityProvider // required
	API      AuthAPI                // required
	Deps     SessionManagerDeps
	Config   SessionConfig
}

// SessionManager is the single authority over the authenticated identity:
// who is logged in, with what token, and whether that token is still valid.
// Consumers read the session through Current/Token; only SessionManager
// methods mutate it.
type SessionManager struct {
	provider ports.IdentityProvider
	api      AuthAPI
	cache    ports.SessionCache
	nav      ports.Navigator
	logger   *slog.Logger
	cfg      SessionConfig

	// now is swapped in tests.
	now func() time.Time

	mu       sync.Mutex
	state    State
	current  *session.Session
	cleanups []func()

	// refreshGroup coalesces concurrent refresh callers onto one
	// outstanding provider mint. The browser original ran concurrent
	// refreshes with last-write-wins; serializing them closes that gap.
	refreshGroup singleflight.Group
}

const (
	defaultRestoreTimeout = 5 * time.Second
	defaultRestoreBackoff = 500 * time.Millisecond
)

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Provider == nil {
		panic("IdentityProvider is required")
	}
	if opts.API == nil {
		panic("AuthAPI is required")
	}

	cfg := opts.Config
	if cfg.RestoreTimeout <= 0 {
		cfg.RestoreTimeout = defaultRestoreTimeout
	}
	if cfg.RestoreBackoff <= 0 {
		cfg.RestoreBackoff = defaultRestoreBackoff
	}

	return &SessionManager{
		provider: opts.Provider,
		api:      opts.API,
		cache:    opts.Deps.Cache,
		nav:      opts.Deps.Navigator,
		logger:   opts.Deps.Logger,
		cfg:      cfg,
		now:      time.Now,
		state:    StateAnonymous,
	}
}

// Current returns a copy of the live session, or nil when anonymous.
func (m *SessionManager) Current() *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// Token returns the current access token, or "" when anonymous.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

// State returns the lifecycle phase.
func (m *SessionManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RegisterCleanup registers a function run during logout, after the session
// is cleared. Stores register their cache resets here.
func (m *SessionManager) RegisterCleanup(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, fn)
}

// Login runs the credential exchange protocol and, on success, replaces any
// previous session with exactly one new one. Failures leave the pre-call
// session untouched and come back as result values, never panics.
func (m *SessionManager) Login(ctx context.Context, email, password string) session.AuthResult {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.Failure(apperrors.Validation("email and password are required"))
	}

	prev := m.beginAuthenticating()

	cred, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		m.setState(prev)
		return session.Failure(classifyProviderError(err))
	}

	// Possession of the password is not sufficient: an unverified email
	// fails the attempt even though the credential exchange succeeded.
	if !cred.EmailVerified {
		m.setState(prev)
		return session.Failure(apperrors.VerificationRequired(cred.Email))
	}

	token, err := m.provider.Token(ctx, false)
	if err != nil {
		m.setState(prev)
		return session.Failure(apperrors.Wrap(err, apperrors.ErrCodeNetwork, "fetch provider token"))
	}

	sess, err := m.exchangeAndBuild(ctx, token, cred)
	if err != nil {
		m.setState(prev)
		return session.Failure(err)
	}

	m.install(sess)
	m.snapshot(ctx, sess)

	if m.logger != nil {
		m.logger.InfoContext(ctx, "login succeeded",
			slog.String("identity_id", sess.IdentityID),
			slog.String("role", string(sess.Role)),
		)
	}

	cp := *sess
	return session.AuthResult{
		Status:      session.StatusOK,
		Session:     &cp,
		Route:       string(nav.LandingFor(sess.Role)),
		RouteParams: map[string]string{"id": sess.IdentityID},
	}
}

// RegisterForm carries the registration input.
type RegisterForm struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Position   string
	DormID     string
	RoomNumber string
}

// Register creates an account: backend record first, then the provider
// credential, then the verification email. It never establishes a session;
// success means "account pending email verification".
func (m *SessionManager) Register(ctx context.Context, form RegisterForm) session.AuthResult {
	if strings.TrimSpace(form.Email) == "" || form.Password == "" {
		return session.Failure(apperrors.Validation("email and password are required"))
	}
	role, err := session.ParseRole(form.Role)
	if err != nil {
		return session.Failure(apperrors.ValidationField("role", "role must be RESIDENT or STAFF"))
	}
	switch role {
	case session.RoleResident:
		if strings.TrimSpace(form.DormID) == "" {
			return session.Failure(apperrors.ValidationField("dormId", "dormitory is required for residents"))
		}
	case session.RoleStaff:
		if strings.TrimSpace(form.Position) == "" {
			return session.Failure(apperrors.ValidationField("position", "position is required for staff"))
		}
	}

	if _, err = m.api.Signup(ctx, backend.SignupRequest{
		Email:      strings.TrimSpace(form.Email),
		FirstName:  strings.TrimSpace(form.FirstName),
		LastName:   strings.TrimSpace(form.LastName),
		Role:       string(role),
		Position:   strings.TrimSpace(form.Position),
		DormID:     strings.TrimSpace(form.DormID),
		RoomNumber: strings.TrimSpace(form.RoomNumber),
	}); err != nil {
		if backend.IsStatus(err, 409) {
			return session.Failure(apperrors.Conflict("an account with this email already exists"))
		}
		return session.Failure(apperrors.Wrap(err, apperrors.ErrCodeNetwork, "backend signup"))
	}

	cred, err := m.provider.SignUp(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		var pe *ports.ProviderError
		if errors.As(err, &pe) && pe.Code == ports.CodeEmailAlreadyInUse {
			return session.Failure(apperrors.Conflict("an account with this email already exists"))
		}
		return session.Failure(apperrors.Wrap(err, apperrors.ErrCodeNetwork, "provider signup"))
	}

	if err = m.provider.SendVerificationEmail(ctx, cred); err != nil && m.logger != nil {
		// Non-fatal: the account exists, the caller can offer a resend.
		m.logger.WarnContext(ctx, "send verification email failed", slog.Any("error", err))
	}

	return session.AuthResult{
		Status: session.StatusOK,
		Route:  string(nav.RouteLogin),
	}
}

// RestoreSession attempts to rebuild a session on cold start. The cached
// snapshot supplies the last-known identity up front; the provider remains
// authoritative and is awaited for at most RestoreTimeout, then the backend
// exchange runs with exactly one retry after a fixed backoff. Returns
// whether a usable session exists.
func (m *SessionManager) RestoreSession(ctx context.Context) bool {
	last, hasLast := m.lastSnapshot(ctx)
	if hasLast && m.logger != nil {
		m.logger.InfoContext(ctx, "restoring session",
			slog.String("identity_id", last.IdentityID),
			slog.String("role", string(last.Role)),
		)
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.RestoreTimeout)
	defer cancel()

	cred, present, err := m.provider.AwaitIdentity(waitCtx)
	if err != nil || !present {
		if err != nil && m.logger != nil {
			m.logger.DebugContext(ctx, "no restorable identity", slog.Any("error", err))
		}
		// A snapshot without a provider identity is stale; drop it so the
		// next start does not announce an identity that cannot come back.
		// Provider errors keep it: the identity may reappear.
		if hasLast && err == nil {
			m.clearSnapshot(ctx)
		}
		return false
	}

	token, err := m.provider.Token(ctx, false)
	if err != nil {
		return false
	}

	sess, err := m.exchangeAndBuild(ctx, token, cred)
	if err != nil {
		// One retry after a fixed backoff for backend cold-start latency.
		select {
		case <-time.After(m.cfg.RestoreBackoff):
		case <-ctx.Done():
			return false
		}
		if sess, err = m.exchangeAndBuild(ctx, token, cred); err != nil {
			if m.logger != nil {
				m.logger.WarnContext(ctx, "session restore failed", slog.Any("error", err))
			}
			return false
		}
	}

	m.install(sess)
	m.snapshot(ctx, sess)
	return true
}

// Refresh mints a new provider token and rotates it into the live session.
// Concurrent callers coalesce onto a single outstanding mint. On provider
// failure the session is torn down via Logout and "" is returned with the
// error. This is the only place token rotation happens.
func (m *SessionManager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		token, mintErr := m.provider.Token(ctx, true)
		if mintErr != nil {
			m.Logout(ctx)
			return "", apperrors.Wrap(mintErr, apperrors.ErrCodeTokenExpired, "token refresh failed")
		}

		m.mu.Lock()
		if m.current != nil {
			m.current.AccessToken = token
		}
		m.mu.Unlock()

		return token, nil
	})
	if err != nil {
		return "", err
	}
	token, _ := v.(string)
	return token, nil
}

// Logout ends the session. The backend notification is best-effort and the
// provider sign-out unconditional; local cleanup runs in a deferred block
// so no upstream failure can leave a stale session behind. Logout never
// returns an error.
func (m *SessionManager) Logout(ctx context.Context) {
	token := m.Token()

	defer func() {
		m.mu.Lock()
		m.current = nil
		m.state = StateAnonymous
		cleanups := make([]func(), len(m.cleanups))
		copy(cleanups, m.cleanups)
		m.mu.Unlock()

		for _, fn := range cleanups {
			fn()
		}
		m.clearSnapshot(ctx)
		if m.nav != nil {
			if err := m.nav.Go(nav.RouteLogin, nil); err != nil && m.logger != nil {
				m.logger.DebugContext(ctx, "navigate to login failed", slog.Any("error", err))
			}
		}
	}()

	// Skip silently when there is no token; logout must never be blocked
	// by network absence.
	if token != "" {
		if err := m.api.NotifyLogout(ctx, token); err != nil && m.logger != nil {
			m.logger.DebugContext(ctx, "backend logout notification failed", slog.Any("error", err))
		}
	}

	if err := m.provider.SignOut(ctx); err != nil && m.logger != nil {
		m.logger.WarnContext(ctx, "provider sign-out failed", slog.Any("error", err))
	}
}

// exchangeAndBuild trades a provider token for the canonical identity and
// builds a fully populated session. The backend is the source of truth for
// role and profile fields.
func (m *SessionManager) exchangeAndBuild(ctx context.Context, token string, cred ports.Credential) (*session.Session, error) {
	payload, err := m.api.LoginExchange(ctx, token)
	if err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "login exchange returned status %d", se.Code)
		}
		return nil, err
	}

	if payload.UserID == "" || payload.Role == "" {
		return nil, apperrors.BackendContract("login exchange missing userId or role")
	}
	role, err := session.ParseRole(payload.Role)
	if err != nil {
		return nil, apperrors.BackendContractf("login exchange returned unknown role %q", payload.Role)
	}

	email := payload.Email
	if email == "" {
		email = cred.Email
	}

	sess, err := session.NewSession(
		payload.UserID,
		email,
		payload.FirstName,
		payload.LastName,
		role,
		session.RoleAttributes{
			Position:   payload.Position,
			DormID:     payload.DormID,
			RoomNumber: payload.RoomNumber,
		},
		token,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBackendContract, "build session")
	}
	return sess, nil
}

func (m *SessionManager) install(sess *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = sess
	m.state = StateAuthenticated
}

// lastSnapshot reads the persisted snapshot, treating any load failure or
// empty record as absence.
func (m *SessionManager) lastSnapshot(ctx context.Context) (ports.Snapshot, bool) {
	if m.cache == nil {
		return ports.Snapshot{}, false
	}
	snap, err := m.cache.Load(ctx)
	if err != nil || snap.IdentityID == "" {
		return ports.Snapshot{}, false
	}
	return snap, true
}

func (m *SessionManager) clearSnapshot(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Clear(ctx); err != nil && m.logger != nil {
		m.logger.DebugContext(ctx, "clear session snapshot failed", slog.Any("error", err))
	}
}

func (m *SessionManager) snapshot(ctx context.Context, sess *session.Session) {
	if m.cache == nil {
		return
	}
	snap := ports.Snapshot{
		IdentityID: sess.IdentityID,
		Email:      sess.Email,
		Role:       sess.Role,
		SavedAt:    m.now(),
	}
	if err := m.cache.Save(ctx, snap); err != nil && m.logger != nil {
		m.logger.DebugContext(ctx, "save session snapshot failed", slog.Any("error", err))
	}
}

func (m *SessionManager) beginAuthenticating() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = StateAuthenticating
	return prev
}

func (m *SessionManager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// classifyProviderError folds provider sign-in failures into the error
// taxonomy. Every credential-check failure collapses into the single
// generic credential error; anything else is a transport problem.
func classifyProviderError(err error) error {
	var pe *ports.ProviderError
	if errors.As(err, &pe) && pe.Code.IsCredentialCode() {
		return apperrors.Credential(err)
	}
	return apperrors.Network(fmt.Errorf("identity provider: %w", err))
}
