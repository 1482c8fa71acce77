package stytch

import "time"

// ============================================================================
// Response envelope
// ============================================================================

// DataContainer is the envelope wrapping every successful JSON response
// body. The inner payload is unwrapped before per-response-type dispatch.
type DataContainer[T any] struct {
	Data T `json:"data"`
}

// ============================================================================
// Entities
// ============================================================================

// User is a consumer-product user.
type User struct {
	UserID string `json:"user_id"`

	Emails []Email `json:"emails,omitempty"`

	// BiometricRegistrations lists the server's view of this user's
	// biometric enrollments. The router reconciles the local keychain
	// against it after consumer authentication.
	BiometricRegistrations []BiometricRegistration `json:"biometric_registrations,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Email is one email address attached to a user.
type Email struct {
	EmailID  string `json:"email_id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// BiometricRegistration is one biometric enrollment known to the server.
type BiometricRegistration struct {
	BiometricRegistrationID string `json:"biometric_registration_id"`
	Verified                bool   `json:"verified"`
}

// Session is a consumer session.
type Session struct {
	SessionID             string    `json:"session_id"`
	UserID                string    `json:"user_id"`
	StartedAt             time.Time `json:"started_at,omitzero"`
	ExpiresAt             time.Time `json:"expires_at,omitzero"`
	AuthenticationFactors []Factor  `json:"authentication_factors,omitempty"`
}

// Factor records one authentication factor on a session.
type Factor struct {
	Type         string    `json:"type"`
	DeliveryMode string    `json:"delivery_method,omitempty"`
	LastAuthedAt time.Time `json:"last_authenticated_at,omitzero"`
}

// Member is a B2B organization member.
type Member struct {
	MemberID       string `json:"member_id"`
	OrganizationID string `json:"organization_id"`
	EmailAddress   string `json:"email_address"`
	Status         string `json:"status,omitempty"`
}

// MemberSession is a B2B session scoped to a member and organization.
type MemberSession struct {
	MemberSessionID string    `json:"member_session_id"`
	MemberID        string    `json:"member_id"`
	OrganizationID  string    `json:"organization_id"`
	StartedAt       time.Time `json:"started_at,omitzero"`
	ExpiresAt       time.Time `json:"expires_at,omitzero"`
}

// Organization is a B2B organization.
type Organization struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	OrganizationSlug string `json:"organization_slug,omitempty"`
}

// DiscoveredOrganization pairs an organization with the membership state the
// discovering identity has in it.
type DiscoveredOrganization struct {
	Organization   Organization `json:"organization"`
	MembershipType string       `json:"membership_type,omitempty"`
}

// ============================================================================
// Session-bearing response shapes
// ============================================================================
//
// The router tests decoded payloads against these shapes in a fixed order;
// the first match drives the session/user/member/organization state update.

// AuthenticateResponseData is the consumer-auth shape: a full user session
// plus both token forms.
type AuthenticateResponseData struct {
	User         User    `json:"user"`
	Session      Session `json:"session"`
	SessionToken string  `json:"session_token"`
	SessionJWT   string  `json:"session_jwt"`
}

// B2BAuthenticateResponseData is the B2B-auth shape: a full member session
// with member and organization context.
type B2BAuthenticateResponseData struct {
	MemberSession MemberSession `json:"member_session"`
	Member        Member        `json:"member"`
	Organization  Organization  `json:"organization"`
	SessionToken  string        `json:"session_token"`
	SessionJWT    string        `json:"session_jwt"`
}

// B2BMFAAuthenticateResponseData is the B2B-MFA-auth shape. MemberSession is
// absent while MFA is still pending; the intermediate session token stands in
// until the flow completes.
type B2BMFAAuthenticateResponseData struct {
	MemberSession            *MemberSession `json:"member_session"`
	Member                   Member         `json:"member"`
	Organization             Organization   `json:"organization"`
	IntermediateSessionToken string         `json:"intermediate_session_token"`
	SessionToken             string         `json:"session_token,omitempty"`
	SessionJWT               string         `json:"session_jwt,omitempty"`
}

// DiscoveryResponseData is the discovery-intermediate-session shape: only a
// partial-authentication token, issued before an organization is chosen.
type DiscoveryResponseData struct {
	IntermediateSessionToken string                   `json:"intermediate_session_token"`
	EmailAddress             string                   `json:"email_address,omitempty"`
	DiscoveredOrganizations  []DiscoveredOrganization `json:"discovered_organizations,omitempty"`
}

// BasicResponseData is the minimal payload for calls that only acknowledge,
// e.g. sending a magic link.
type BasicResponseData struct {
	RequestID  string `json:"request_id,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// TOTPCreateResponseData is returned when enrolling a TOTP authenticator.
type TOTPCreateResponseData struct {
	TOTPID        string   `json:"totp_id"`
	Secret        string   `json:"secret"`
	QRCode        string   `json:"qr_code,omitempty"`
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
}
