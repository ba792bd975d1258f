package service

import (
	"context"

	"github.com/tractify/tractify-go/internal/domain/nav"
	"github.com/tractify/tractify-go/internal/domain/session"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allow bool
	// Redirect names where to send a denied navigation. Always RouteLogin
	// in the current policy; kept explicit so callers never hardcode it.
	Redirect nav.Route
}

func allow() Decision           { return Decision{Allow: true} }
func deny(r nav.Route) Decision { return Decision{Redirect: r} }

// Guard is evaluated before every navigation. Public routes always pass.
// Everything else requires a live session (one restore attempt when
// absent), an unexpired token (one refresh attempt when expired), and
// role/route compatibility.
func (m *SessionManager) Guard(ctx context.Context, target nav.Route) Decision {
	if nav.Public(target) {
		return allow()
	}

	cur := m.Current()
	if cur == nil {
		if !m.RestoreSession(ctx) {
			return deny(nav.RouteLogin)
		}
		cur = m.Current()
		if cur == nil {
			return deny(nav.RouteLogin)
		}
	}

	// Role incompatibility denies regardless of token validity.
	if !nav.Allowed(cur.Role, target) {
		return deny(nav.RouteLogin)
	}

	claims, err := session.DecodeClaims(cur.AccessToken)
	if err != nil || claims.Expired(m.now()) {
		if _, refreshErr := m.Refresh(ctx); refreshErr != nil {
			return deny(nav.RouteLogin)
		}
	}

	return allow()
}
