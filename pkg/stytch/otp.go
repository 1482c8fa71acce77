package stytch

import "context"

// OTPClient exposes the one-time-passcode product. Passcodes can be delivered
// over SMS, WhatsApp, or email; exactly one delivery field must be set.
type OTPClient struct {
	router *Router
}

// OTPSendParams configures passcode delivery.
type OTPSendParams struct {
	PhoneNumber       string `json:"phone_number,omitempty"`
	WhatsAppNumber    string `json:"whatsapp_number,omitempty"`
	Email             string `json:"email,omitempty"`
	ExpirationMinutes int    `json:"expiration_minutes,omitempty"`
}

// OTPSendResponseData carries the method id needed to redeem the passcode.
type OTPSendResponseData struct {
	RequestID string `json:"request_id,omitempty"`
	MethodID  string `json:"method_id"`
}

// OTPAuthenticateParams redeems a delivered passcode.
type OTPAuthenticateParams struct {
	MethodID               string `json:"method_id"`
	Code                   string `json:"code"`
	SessionDurationMinutes int    `json:"session_duration_minutes,omitempty"`
}

// Send delivers a passcode to an existing user.
func (c *OTPClient) Send(ctx context.Context, params OTPSendParams) (OTPSendResponseData, error) {
	return Post[OTPSendResponseData](ctx, c.router, OTPRouteSend, params, true)
}

// LoginOrCreate delivers a passcode, creating the user if they do not exist.
func (c *OTPClient) LoginOrCreate(ctx context.Context, params OTPSendParams) (OTPSendResponseData, error) {
	return Post[OTPSendResponseData](ctx, c.router, OTPRouteLoginOrCreate, params, true)
}

// Authenticate redeems a passcode against the method id that sent it.
func (c *OTPClient) Authenticate(ctx context.Context, params OTPAuthenticateParams) (AuthenticateResponseData, error) {
	return Post[AuthenticateResponseData](ctx, c.router, OTPRouteAuthenticate, params, true)
}
