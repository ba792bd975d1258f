package ports

// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	"github.com/tractify/tractify-go/internal/domain/nav"
	domainsession "github.com/tractify/tractify-go/internal/domain/session"
)

// Credential is the provider-level view of an account, before the backend
// exchange that produces the canonical identity record.
type Credential struct {
	UserID        string
	Email         string
	EmailVerified bool
}

// ProviderErrorCode enumerates the identity-provider failure codes the
// session core consumes. Adapters map provider-specific failures onto these.
type ProviderErrorCode string

const (
	CodeInvalidCredential   ProviderErrorCode = "invalid-credential"
	CodeWrongPassword       ProviderErrorCode = "wrong-password"
	CodeUserNotFound        ProviderErrorCode = "user-not-found"
	CodeInvalidEmail        ProviderErrorCode = "invalid-email"
	CodeEmailAlreadyInUse   ProviderErrorCode = "email-already-in-use"
	CodeRequiresRecentLogin ProviderErrorCode = "requires-recent-login"
	CodeInvalidActionCode   ProviderErrorCode = "invalid-action-code"
	CodeUnavailable         ProviderErrorCode = "unavailable"
)

// ProviderError carries a normalized failure code from an identity provider.
type ProviderError struct {
	Code ProviderErrorCode
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsCredentialCode reports whether the code is one of the credential-check
// failures that must be indistinguishable to callers.
func (c ProviderErrorCode) IsCredentialCode() bool {
	switch c {
	case CodeInvalidCredential, CodeWrongPassword, CodeUserNotFound, CodeInvalidEmail:
		return true
	default:
		return false
	}
}

// IdentityProvider is the external service issuing signed, time-limited
// tokens and managing credential verification. Not implemented here; the
// oidc and devauth adapters satisfy it.
type IdentityProvider interface {
	// SignIn exchanges credentials for a provider-level credential record.
	SignIn(ctx context.Context, email, password string) (Credential, error)

	// SignUp creates a provider credential for a new account.
	SignUp(ctx context.Context, email, password string) (Credential, error)

	// SignOut invalidates the provider-level identity.
	SignOut(ctx context.Context) error

	// Token returns a signed access token for the current identity.
	// force requests a freshly minted token even if a cached one remains valid.
	Token(ctx context.Context, force bool) (string, error)

	// SendVerificationEmail triggers the provider's verification mail.
	SendVerificationEmail(ctx context.Context, cred Credential) error

	// AwaitIdentity waits, bounded by ctx, for the provider to report a
	// persisted identity. It resolves exactly once: (cred, true) when an
	// identity is present, (zero, false) when the provider settles on
	// anonymous. Used on cold start.
	AwaitIdentity(ctx context.Context) (Credential, bool, error)
}

// Snapshot is the session metadata persisted between process runs.
// It never carries tokens; those stay with the provider.
type Snapshot struct {
	IdentityID string             `json:"identity_id"`
	Email      string             `json:"email"`
	Role       domainsession.Role `json:"role"`
	SavedAt    time.Time          `json:"saved_at"`
}

// SessionCache persists and retrieves the last-known session snapshot.
type SessionCache interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Clear(ctx context.Context) error
}

// Navigator performs named-route transitions. The session core requests
// navigation; the embedding application owns the transition itself.
type Navigator interface {
	Go(route nav.Route, params map[string]string) error
}
