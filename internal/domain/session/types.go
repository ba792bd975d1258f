package session

// Package session contains domain-level types for the authenticated-identity
// lifecycle. It is pure and free of adapter/transport concerns.

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and wire transport.
type Role string

const (
	RoleResident Role = "RESIDENT"
	RoleStaff    Role = "STAFF"
)

// ParseRole validates and converts a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleResident:
		return RoleResident, nil
	case RoleStaff:
		return RoleStaff, nil
	default:
		return "", fmt.Errorf("unknown role: %q", raw)
	}
}

// RoleAttributes carries the role-specific profile payload.
// Staff sessions populate Position; resident sessions populate DormID and RoomNumber.
type RoleAttributes struct {
	Position   string `json:"position,omitempty"`
	DormID     string `json:"dorm_id,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
}

// Session is the single in-memory record of the currently authenticated user.
// A Session is either fully populated or absent (nil); no partially
// constructed Session is ever handed to consumers. Construct via NewSession.
type Session struct {
	IdentityID  string         `json:"identity_id"`
	Email       string         `json:"email"`
	DisplayName string         `json:"display_name"`
	Role        Role           `json:"role"`
	Attributes  RoleAttributes `json:"attributes"`
	AccessToken string         `json:"access_token"`
}

// NewSession builds a fully populated Session or fails.
func NewSession(identityID, email, firstName, lastName string, role Role, attrs RoleAttributes, accessToken string) (*Session, error) {
	if identityID == "" {
		return nil, errors.New("identity id is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}
	if role != RoleResident && role != RoleStaff {
		return nil, fmt.Errorf("invalid role: %q", role)
	}
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}
	return &Session{
		IdentityID:  identityID,
		Email:       email,
		DisplayName: DisplayName(firstName, lastName),
		Role:        role,
		Attributes:  attrs,
		AccessToken: accessToken,
	}, nil
}

// DisplayName joins trimmed first and last names with a single space.
// Either side may be empty.
func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// TokenClaims is a decoded view of an access token. It is recomputed on
// demand via DecodeClaims and never cached beyond a single check.
type TokenClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// expiryLeeway absorbs clock skew between client and provider.
const expiryLeeway = 30 * time.Second

// DecodeClaims extracts claims from a raw JWT without verifying its
// signature. The backend is the verifying party; the client only needs the
// embedded expiry to decide when a refresh is due.
func DecodeClaims(rawToken string) (TokenClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return TokenClaims{}, errors.New("empty token")
	}

	token, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("unexpected claims shape")
	}

	var out TokenClaims
	out.Subject, _ = claims["sub"].(string)
	out.Email, _ = claims["email"].(string)
	if exp, expOk := claims["exp"].(float64); expOk {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

// Expired reports whether the claims' expiry has passed at the given
// instant, with a small leeway for clock skew. A zero ExpiresAt is treated
// as expired so malformed tokens force a refresh rather than a silent pass.
func (c TokenClaims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return now.After(c.ExpiresAt.Add(-expiryLeeway))
}

// AuthStatus classifies the outcome of a login/register/restore attempt.
type AuthStatus string

const (
	StatusOK     AuthStatus = "ok"
	StatusFailed AuthStatus = "failed"
)

// AuthResult is the transient value returned from login/register/restore
// attempts. Failures are carried as values; callers branch on Status and
// inspect Err for the failure kind.
type AuthResult struct {
	Status  AuthStatus
	Session *Session
	// Route and RouteParams tell the caller where to navigate on success.
	// Navigation is requested, never performed, by the session layer.
	Route       string
	RouteParams map[string]string
	Err         error
}

// OK reports whether the attempt succeeded.
func (r AuthResult) OK() bool { return r.Status == StatusOK }

// Failure builds a failed AuthResult carrying err.
func Failure(err error) AuthResult {
	return AuthResult{Status: StatusFailed, Err: err}
}
