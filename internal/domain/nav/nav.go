package nav

// Package nav defines the named navigation surface consumed by the session
// core. The actual transition is owned by the embedding application; this
// package only names routes and encodes role/route compatibility.

import "github.com/tractify/tractify-go/internal/domain/session"

// Route is a named navigation target.
type Route string

const (
	// RouteLogin is the anonymous entry point.
	RouteLogin         Route = "login"
	RouteRegister      Route = "register"
	RouteResetPassword Route = "reset-password"

	// RouteHome is the resident landing route.
	RouteHome Route = "home"
	// RouteHomeStaff is the staff landing route.
	RouteHomeStaff Route = "homestaff"

	RouteParcels       Route = "parcels"
	RouteMembers       Route = "members"
	RouteAnnouncements Route = "announcements"
	RouteProfile       Route = "profile"
	RouteScanner       Route = "scanner"
)

// Public reports whether the route is reachable without a session.
func Public(r Route) bool {
	switch r {
	case RouteLogin, RouteRegister, RouteResetPassword:
		return true
	default:
		return false
	}
}

// staffOnly and residentOnly partition the authenticated surface.
// Routes absent from both maps are open to any authenticated role.
var staffOnly = map[Route]bool{
	RouteHomeStaff: true,
	RouteMembers:   true,
	RouteScanner:   true,
}

var residentOnly = map[Route]bool{
	RouteHome: true,
}

// Allowed reports whether a role may visit a route. Public routes are
// always allowed regardless of role.
func Allowed(role session.Role, r Route) bool {
	if Public(r) {
		return true
	}
	if staffOnly[r] {
		return role == session.RoleStaff
	}
	if residentOnly[r] {
		return role == session.RoleResident
	}
	return role == session.RoleStaff || role == session.RoleResident
}

// LandingFor returns the post-login landing route for a role.
func LandingFor(role session.Role) Route {
	if role == session.RoleStaff {
		return RouteHomeStaff
	}
	return RouteHome
}
