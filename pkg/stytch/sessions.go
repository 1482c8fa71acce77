package stytch

import "context"

// SessionsClient exposes session management for the consumer product.
type SessionsClient struct {
	router *Router
}

// SessionsAuthenticateParams refreshes or extends the active session.
type SessionsAuthenticateParams struct {
	SessionDurationMinutes int `json:"session_duration_minutes,omitempty"`
}

// Authenticate validates the active session with the API, rotating the cached
// tokens to the ones in the response.
func (c *SessionsClient) Authenticate(ctx context.Context, params SessionsAuthenticateParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, SessionsRouteAuthenticate, params, false)
}

// Revoke destroys the session server-side, then clears the local caches. The
// local state is cleared even though the server already invalidated the
// tokens, so a successful revoke always leaves the client signed out.
func (c *SessionsClient) Revoke(ctx context.Context) error {
	if err := c.router.PostVoid(ctx, SessionsRouteRevoke, struct{}{}, false); err != nil {
		return err
	}
	c.router.state.ResetSession()
	return nil
}
