package stytch

import "context"

// PasswordsClient exposes the password product.
type PasswordsClient struct {
	router *Router
}

// PasswordParams carries an email/password pair for create or authenticate.
type PasswordParams struct {
	Email                  string `json:"email"`
	Password               string `json:"password"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// PasswordResetBySessionParams sets a new password for the active session's
// user.
type PasswordResetBySessionParams struct {
	Password               string `json:"password"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// Create registers a new user with an email and password.
func (c *PasswordsClient) Create(ctx context.Context, params PasswordParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, PasswordsRouteCreate, params, true)
}

// Authenticate checks an email/password pair and starts a session.
func (c *PasswordsClient) Authenticate(ctx context.Context, params PasswordParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, PasswordsRouteAuthenticate, params, true)
}

// ResetBySession replaces the password of the currently authenticated user.
func (c *PasswordsClient) ResetBySession(ctx context.Context, params PasswordResetBySessionParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, PasswordsRouteResetBySession, params, true)
}
