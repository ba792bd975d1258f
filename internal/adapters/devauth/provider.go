package devauth

// Package devauth provides a config-driven IdentityProvider for local
// development. It keeps accounts in memory and mints locally signed tokens,
// so the full session lifecycle runs without any external identity service.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tractify/tractify-go/internal/ports"
)

// Config controls the dev provider behavior.
type Config struct {
	UserID   string
	Email    string
	Password string

	// AutoSignIn makes AwaitIdentity resolve to the configured account,
	// simulating a persisted provider identity across restarts.
	AutoSignIn bool

	SigningKey string        // default "tractify-dev" when empty
	TokenTTL   time.Duration // default 8h when zero
}

type account struct {
	userID   string
	password string
	verified bool
}

// Provider implements ports.IdentityProvider for local development.
type Provider struct {
	signingKey []byte
	tokenTTL   time.Duration
	autoSignIn bool
	seedEmail  string

	// now is swapped in tests.
	now func() time.Time

	mu       sync.Mutex
	accounts map[string]account
	current  *ports.Credential
}

// NewProvider constructs a dev provider seeded with the configured account.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}

	key := cfg.SigningKey
	if key == "" {
		key = "tractify-dev"
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}

	email := normalize(cfg.Email)
	return &Provider{
		signingKey: []byte(key),
		tokenTTL:   ttl,
		autoSignIn: cfg.AutoSignIn,
		seedEmail:  email,
		now:        time.Now,
		accounts: map[string]account{
			// Seed account is pre-verified so dev sign-in works immediately.
			email: {userID: cfg.UserID, password: cfg.Password, verified: true},
		},
	}, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignIn checks the credential against the in-memory accounts.
func (p *Provider) SignIn(_ context.Context, email, password string) (ports.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[normalize(email)]
	if !ok {
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeUserNotFound,
			Err:  errors.New("no such dev account"),
		}
	}
	if acct.password != password {
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeWrongPassword,
			Err:  errors.New("password mismatch"),
		}
	}

	cred := ports.Credential{
		UserID:        acct.userID,
		Email:         normalize(email),
		EmailVerified: acct.verified,
	}
	p.current = &cred
	return cred, nil
}

// SignUp registers a new in-memory account. New accounts start unverified;
// SendVerificationEmail flips them, standing in for the real mail round trip.
func (p *Provider) SignUp(_ context.Context, email, password string) (ports.Credential, error) {
	key := normalize(email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[key]; exists {
		return ports.Credential{}, &ports.ProviderError{
			Code: ports.CodeEmailAlreadyInUse,
			Err:  errors.New("dev account exists"),
		}
	}

	userID := fmt.Sprintf("dev-%d", len(p.accounts)+1)
	p.accounts[key] = account{userID: userID, password: password}
	return ports.Credential{UserID: userID, Email: key}, nil
}

// SignOut forgets the current identity.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return nil
}

// Token mints a signed token for the current identity. Every call mints
// fresh, so force changes nothing here.
func (p *Provider) Token(_ context.Context, _ bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", &ports.ProviderError{
			Code: ports.CodeRequiresRecentLogin,
			Err:  errors.New("no dev identity"),
		}
	}

	now := p.now()
	claims := jwt.MapClaims{
		"sub":   p.current.UserID,
		"email": p.current.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign dev token: %w", err)
	}
	return token, nil
}

// SendVerificationEmail marks the account verified instead of sending mail.
func (p *Provider) SendVerificationEmail(_ context.Context, cred ports.Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := normalize(cred.Email)
	acct, ok := p.accounts[key]
	if !ok {
		return &ports.ProviderError{
			Code: ports.CodeUserNotFound,
			Err:  errors.New("no such dev account"),
		}
	}
	acct.verified = true
	p.accounts[key] = acct
	return nil
}

// AwaitIdentity resolves to the seed account when AutoSignIn is set,
// otherwise to anonymous.
func (p *Provider) AwaitIdentity(_ context.Context) (ports.Credential, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return *p.current, true, nil
	}
	if !p.autoSignIn {
		return ports.Credential{}, false, nil
	}

	acct := p.accounts[p.seedEmail]
	cred := ports.Credential{
		UserID:        acct.userID,
		Email:         p.seedEmail,
		EmailVerified: acct.verified,
	}
	p.current = &cred
	return cred, true, nil
}
