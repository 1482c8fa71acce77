package stytch

import "context"

// B2BMagicLinksClient exposes the B2B email magic-link product.
type B2BMagicLinksClient struct {
	router *Router
}

// B2BMagicLinksEmailParams configures sending a B2B magic link.
type B2BMagicLinksEmailParams struct {
	OrganizationID     string `json:"organization_id,omitempty"`
	Email              string `json:"email_address"`
	LoginRedirectURL   string `json:"login_redirect_url,omitempty"`
	SignupRedirectURL  string `json:"signup_redirect_url,omitempty"`
	LoginTemplateID    string `json:"login_template_id,omitempty"`
	SignupTemplateID   string `json:"signup_template_id,omitempty"`
	PKCECodeChallenge  string `json:"pkce_code_challenge,omitempty"`
}

// B2BMagicLinksAuthenticateParams redeems a B2B magic-link token. The
// response may carry a full member session or, when the organization requires
// MFA, only an intermediate session token.
type B2BMagicLinksAuthenticateParams struct {
	Token                  string `json:"magic_links_token"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
	PKCECodeVerifier       string `json:"pkce_code_verifier,omitempty"`
}

// LoginOrSignup sends a magic link, provisioning the member if needed.
func (c *B2BMagicLinksClient) LoginOrSignup(ctx context.Context, params B2BMagicLinksEmailParams) (BasicResponseData, error) {
	return Post[BasicResponseData](ctx, c.router, B2BMagicLinksRouteLoginOrSignup, params, true)
}

// Authenticate redeems a B2B magic-link token.
func (c *B2BMagicLinksClient) Authenticate(ctx context.Context, params B2BMagicLinksAuthenticateParams) (B2BMFAAuthenticateResponseData, error) {
	return Post[B2BMFAAuthenticateResponseData](ctx, c.router, B2BMagicLinksRouteAuthenticate, params, true)
}

// B2BSessionsClient exposes session management for the B2B product.
type B2BSessionsClient struct {
	router *Router
}

// B2BSessionsAuthenticateParams refreshes or extends the active member
// session.
type B2BSessionsAuthenticateParams struct {
	SessionDurationMinutes int `json:"session_duration_minutes,omitempty"`
}

// Authenticate validates the active member session, rotating the cached
// tokens to the ones in the response.
func (c *B2BSessionsClient) Authenticate(ctx context.Context, params B2BSessionsAuthenticateParams) (B2BAuthenticateResponseData, error) {
	return Post[B2BAuthenticateResponseData](ctx, c.router, B2BSessionsRouteAuthenticate, params, false)
}

// Revoke destroys the member session server-side, then clears the local
// caches.
func (c *B2BSessionsClient) Revoke(ctx context.Context) error {
	if err := c.router.PostVoid(ctx, B2BSessionsRouteRevoke, struct{}{}, false); err != nil {
		return err
	}
	c.router.state.ResetSession()
	return nil
}

// DiscoveryClient exposes the B2B discovery flow: listing the organizations
// an intermediate session can join, and exchanging the intermediate session
// for a full member session in one of them.
type DiscoveryClient struct {
	router *Router
}

// DiscoveryOrganizationsResponseData lists the organizations discoverable
// with the current intermediate session.
type DiscoveryOrganizationsResponseData struct {
	EmailAddress            string                   `json:"email_address"`
	DiscoveredOrganizations []DiscoveredOrganization `json:"discovered_organizations"`
}

// DiscoveryExchangeParams selects the organization to exchange the
// intermediate session into.
type DiscoveryExchangeParams struct {
	OrganizationID         string `json:"organization_id"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// Organizations lists the organizations available to the intermediate
// session. The token is taken from the session cache; callers never pass it.
type discoveryOrganizationsParams struct {
	IntermediateSessionToken string `json:"intermediate_session_token"`
}

func (c *DiscoveryClient) Organizations(ctx context.Context) (DiscoveryOrganizationsResponseData, error) {
	params := discoveryOrganizationsParams{
		IntermediateSessionToken: c.router.state.Sessions.IntermediateSessionToken(),
	}
	return Post[DiscoveryOrganizationsResponseData](ctx, c.router, B2BDiscoveryRouteOrganizations, params, false)
}

// ExchangeIntermediateSession trades the intermediate session for a full
// member session in the chosen organization. The response may again be an
// MFA-pending shape when the target organization requires a second factor.
func (c *DiscoveryClient) ExchangeIntermediateSession(ctx context.Context, params DiscoveryExchangeParams) (B2BMFAAuthenticateResponseData, error) {
	type exchangeParams struct {
		DiscoveryExchangeParams
		IntermediateSessionToken string `json:"intermediate_session_token"`
	}
	body := exchangeParams{
		DiscoveryExchangeParams:  params,
		IntermediateSessionToken: c.router.state.Sessions.IntermediateSessionToken(),
	}
	return Post[B2BMFAAuthenticateResponseData](ctx, c.router, B2BDiscoveryRouteExchangeIntermediateSession, body, true)
}

// B2BTOTPClient exposes the member MFA TOTP second factor.
type B2BTOTPClient struct {
	router *Router
}

// B2BTOTPAuthenticateParams completes MFA with a TOTP code.
type B2BTOTPAuthenticateParams struct {
	OrganizationID         string `json:"organization_id"`
	MemberID               string `json:"member_id"`
	Code                   string `json:"code"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// Authenticate verifies the TOTP code and upgrades the intermediate session
// to a full member session.
func (c *B2BTOTPClient) Authenticate(ctx context.Context, params B2BTOTPAuthenticateParams) (B2BAuthenticateResponseData, error) {
	return Post[B2BAuthenticateResponseData](ctx, c.router, B2BTOTPRouteAuthenticate, params, true)
}
