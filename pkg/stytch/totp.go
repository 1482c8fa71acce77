package stytch

import "context"

// TOTPClient exposes the time-based one-time-password product.
type TOTPClient struct {
	router *Router
}

// TOTPCreateParams enrolls a TOTP authenticator for the active session's user.
type TOTPCreateParams struct {
	ExpirationMinutes int `json:"expiration_minutes,omitempty"`
}

// TOTPAuthenticateParams redeems a generated TOTP code.
type TOTPAuthenticateParams struct {
	TOTPCode               string `json:"totp_code"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// TOTPRecoverParams redeems a backup recovery code.
type TOTPRecoverParams struct {
	RecoveryCode           string `json:"recovery_code"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// Create enrolls a new authenticator and returns its shared secret and
// recovery codes. The secret is only ever returned by this call.
func (c *TOTPClient) Create(ctx context.Context, params TOTPCreateParams) (TOTPCreateResponseData, error) {
	return Post[TOTPCreateResponseData](ctx, c.router, TOTPRouteCreate, params, false)
}

// Authenticate verifies a code from the enrolled authenticator.
func (c *TOTPClient) Authenticate(ctx context.Context, params TOTPAuthenticateParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, TOTPRouteAuthenticate, params, true)
}

// Recover consumes a recovery code in place of a TOTP code.
func (c *TOTPClient) Recover(ctx context.Context, params TOTPRecoverParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, TOTPRouteRecover, params, true)
}
