package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider mode for the application.
type AuthMode string

const (
	// AuthModeOIDC uses an OIDC provider for authentication.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses the dev provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, mock)", v)
	}
}

// OIDCConfig contains OIDC provider configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"tractify"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// SignupURL and VerificationURL are the provider's account endpoints;
	// empty values disable registration and verification mail.
	SignupURL       string `env:"SIGNUP_URL"`
	VerificationURL string `env:"VERIFICATION_URL"`

	// StoredRefreshToken seeds a persisted identity for restore-on-start.
	StoredRefreshToken string `env:"STORED_REFRESH_TOKEN"`
}

// DevAuthConfig controls the dev provider identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID     string        `env:"USER_ID"      envDefault:"dev-user"`
	Email      string        `env:"EMAIL"        envDefault:"dev@example.com"`
	Password   string        `env:"PASSWORD"     envDefault:"dev-password"`
	AutoSignIn bool          `env:"AUTO_SIGN_IN" envDefault:"false"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"    envDefault:"8h"`
}

// AuthConfig groups all identity-provider configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}
