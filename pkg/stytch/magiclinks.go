package stytch

import "context"

// MagicLinksClient exposes the email magic-link product.
type MagicLinksClient struct {
	router *Router
}

// MagicLinksEmailParams configures sending a magic link to an email address.
type MagicLinksEmailParams struct {
	Email                   string `json:"email"`
	LoginMagicLinkURL       string `json:"login_magic_link_url,omitempty"`
	SignupMagicLinkURL      string `json:"signup_magic_link_url,omitempty"`
	LoginExpirationMinutes  int    `json:"login_expiration_minutes,omitempty"`
	SignupExpirationMinutes int    `json:"signup_expiration_minutes,omitempty"`
	CodeChallenge           string `json:"code_challenge,omitempty"`
}

// MagicLinksAuthenticateParams redeems a deeplink token for a session.
type MagicLinksAuthenticateParams struct {
	Token                  string `json:"token"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
	CodeVerifier           string `json:"code_verifier,omitempty"`
}

// LoginOrCreate sends a magic link, creating the user if they do not exist.
func (c *MagicLinksClient) LoginOrCreate(ctx context.Context, params MagicLinksEmailParams) (BasicResponseData, error) {
	return Post[BasicResponseData](ctx, c.router, MagicLinksRouteLoginOrCreate, params, true)
}

// Send sends a magic link to an existing user.
func (c *MagicLinksClient) Send(ctx context.Context, params MagicLinksEmailParams) (BasicResponseData, error) {
	return Post[BasicResponseData](ctx, c.router, MagicLinksRouteSend, params, true)
}

// Authenticate redeems a magic-link token. On success the session caches are
// updated before the response is returned.
func (c *MagicLinksClient) Authenticate(ctx context.Context, params MagicLinksAuthenticateParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, MagicLinksRouteAuthenticate, params, true)
}
