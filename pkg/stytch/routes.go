package stytch

import "strings"

// Path is an immutable URL path fragment. Concatenation normalizes slashes:
// leading/trailing slashes of each segment are trimmed, empty segments are
// dropped, and segments join with a single "/".
type Path struct {
	rawValue string
}

// NewPath creates a Path from a raw fragment, normalizing it immediately so
// concatenation stays associative.
func NewPath(raw string) Path {
	return Path{rawValue: normalizePath(raw)}
}

// AppendingPath returns the concatenation of p and other.
func (p Path) AppendingPath(other Path) Path {
	switch {
	case p.rawValue == "":
		return other
	case other.rawValue == "":
		return p
	default:
		return Path{rawValue: p.rawValue + "/" + other.rawValue}
	}
}

// String returns the normalized fragment without leading or trailing slash.
func (p Path) String() string { return p.rawValue }

// IsEmpty reports whether the path has no segments.
func (p Path) IsEmpty() bool { return p.rawValue == "" }

func normalizePath(raw string) string {
	parts := strings.Split(raw, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, "/")
}

// RouteType is anything that resolves to a Path. Product route enums satisfy
// this; composite routes delegate to their inner route.
type RouteType interface {
	Path() Path
}

// BaseRoute aggregates every product route behind a single RouteType, so one
// dispatch site can address any top-level endpoint. Path delegates to the
// wrapped route.
type BaseRoute struct {
	Route RouteType
}

func (r BaseRoute) Path() Path { return r.Route.Path() }

// ============================================================================
// Product routes
// ============================================================================

// MagicLinksRoute enumerates magic-link endpoints.
type MagicLinksRoute int

const (
	MagicLinksRouteLoginOrCreate MagicLinksRoute = iota
	MagicLinksRouteSend
	MagicLinksRouteAuthenticate
)

func (r MagicLinksRoute) Path() Path {
	switch r {
	case MagicLinksRouteLoginOrCreate:
		return NewPath("magic_links/email/login_or_create")
	case MagicLinksRouteSend:
		return NewPath("magic_links/email/send")
	default:
		return NewPath("magic_links/authenticate")
	}
}

// OTPRoute enumerates one-time-passcode endpoints.
type OTPRoute int

const (
	OTPRouteSend OTPRoute = iota
	OTPRouteLoginOrCreate
	OTPRouteAuthenticate
)

func (r OTPRoute) Path() Path {
	switch r {
	case OTPRouteSend:
		return NewPath("otps/send")
	case OTPRouteLoginOrCreate:
		return NewPath("otps/login_or_create")
	default:
		return NewPath("otps/authenticate")
	}
}

// PasswordsRoute enumerates password endpoints.
type PasswordsRoute int

const (
	PasswordsRouteCreate PasswordsRoute = iota
	PasswordsRouteAuthenticate
	PasswordsRouteResetBySession
)

func (r PasswordsRoute) Path() Path {
	switch r {
	case PasswordsRouteCreate:
		return NewPath("passwords")
	case PasswordsRouteAuthenticate:
		return NewPath("passwords/authenticate")
	default:
		return NewPath("passwords/session/reset")
	}
}

// SessionsRoute enumerates session-management endpoints.
type SessionsRoute int

const (
	SessionsRouteAuthenticate SessionsRoute = iota
	SessionsRouteRevoke
)

func (r SessionsRoute) Path() Path {
	switch r {
	case SessionsRouteAuthenticate:
		return NewPath("sessions/authenticate")
	default:
		return NewPath("sessions/revoke")
	}
}

// TOTPRoute enumerates TOTP endpoints.
type TOTPRoute int

const (
	TOTPRouteCreate TOTPRoute = iota
	TOTPRouteAuthenticate
	TOTPRouteRecover
)

func (r TOTPRoute) Path() Path {
	switch r {
	case TOTPRouteCreate:
		return NewPath("totps")
	case TOTPRouteAuthenticate:
		return NewPath("totps/authenticate")
	default:
		return NewPath("totps/recover")
	}
}

// UsersRoute enumerates user endpoints.
type UsersRoute int

const (
	UsersRouteMe UsersRoute = iota
)

func (r UsersRoute) Path() Path {
	return NewPath("users/me")
}

// B2BMagicLinksRoute enumerates B2B magic-link endpoints.
type B2BMagicLinksRoute int

const (
	B2BMagicLinksRouteLoginOrSignup B2BMagicLinksRoute = iota
	B2BMagicLinksRouteAuthenticate
)

func (r B2BMagicLinksRoute) Path() Path {
	switch r {
	case B2BMagicLinksRouteLoginOrSignup:
		return NewPath("b2b/magic_links/email/login_or_signup")
	default:
		return NewPath("b2b/magic_links/authenticate")
	}
}

// B2BSessionsRoute enumerates B2B session endpoints.
type B2BSessionsRoute int

const (
	B2BSessionsRouteAuthenticate B2BSessionsRoute = iota
	B2BSessionsRouteRevoke
)

func (r B2BSessionsRoute) Path() Path {
	switch r {
	case B2BSessionsRouteAuthenticate:
		return NewPath("b2b/sessions/authenticate")
	default:
		return NewPath("b2b/sessions/revoke")
	}
}

// B2BDiscoveryRoute enumerates B2B discovery endpoints.
type B2BDiscoveryRoute int

const (
	B2BDiscoveryRouteOrganizations B2BDiscoveryRoute = iota
	B2BDiscoveryRouteExchangeIntermediateSession
)

func (r B2BDiscoveryRoute) Path() Path {
	switch r {
	case B2BDiscoveryRouteOrganizations:
		return NewPath("b2b/discovery/organizations")
	default:
		return NewPath("b2b/discovery/intermediate_sessions/exchange")
	}
}

// B2BTOTPRoute enumerates B2B member MFA TOTP endpoints.
type B2BTOTPRoute int

const (
	B2BTOTPRouteAuthenticate B2BTOTPRoute = iota
)

func (r B2BTOTPRoute) Path() Path {
	return NewPath("b2b/totp/authenticate")
}
