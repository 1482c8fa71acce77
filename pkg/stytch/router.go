package stytch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stytchauth/stytch-go-client/internal/keychain"
	"github.com/stytchauth/stytch-go-client/pkg/slogx"
)

// Router is the per-route-type request/response façade. It builds the full
// URL from the configuration and a route's path, performs the request,
// decodes the typed envelope, updates shared session/user/member/organization
// state from session-bearing payloads, and normalizes HTTP errors.
type Router struct {
	getConfig     func() *Configuration
	client        *NetworkingClient
	state         *State
	keychain      keychain.Client
	notConfigured *SDKError
	base          Path
	logger        *slog.Logger
}

// NewRouter builds a router. getConfig returning nil makes every call fail
// with notConfigured; this is how calls made before Configure are rejected.
func NewRouter(
	getConfig func() *Configuration,
	client *NetworkingClient,
	state *State,
	kc keychain.Client,
	notConfigured *SDKError,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &Router{
		getConfig:     getConfig,
		client:        client,
		state:         state,
		keychain:      kc,
		notConfigured: notConfigured,
		logger:        logger,
	}
}

// Scoped returns a child router whose routes resolve under base.
func (r *Router) Scoped(base Path) *Router {
	child := *r
	child.base = r.base.AppendingPath(base)
	return &child
}

// State exposes the shared caches this router updates.
func (r *Router) State() *State { return r.state }

// ============================================================================
// Typed operations
// ============================================================================

// Get performs a GET returning the decoded payload of the data envelope.
func Get[T any](ctx context.Context, r *Router, route RouteType) (T, error) {
	return performTyped[T](ctx, r, MethodGet(), route, false)
}

// Post performs a POST with a JSON body. useDFPPA opts the call into
// anti-abuse decoration; only abuse-sensitive endpoints should set it.
func Post[T any](ctx context.Context, r *Router, route RouteType, params any, useDFPPA bool) (T, error) {
	var zero T
	body, err := marshalParams(params)
	if err != nil {
		return zero, err
	}
	return performTyped[T](ctx, r, MethodPost(body), route, useDFPPA)
}

// Put performs a PUT with a JSON body.
func Put[T any](ctx context.Context, r *Router, route RouteType, params any) (T, error) {
	var zero T
	body, err := marshalParams(params)
	if err != nil {
		return zero, err
	}
	return performTyped[T](ctx, r, MethodPut(body), route, false)
}

// Delete performs a DELETE returning the decoded payload.
func Delete[T any](ctx context.Context, r *Router, route RouteType) (T, error) {
	return performTyped[T](ctx, r, MethodDelete(), route, false)
}

// ============================================================================
// Void operations
// ============================================================================

// PostVoid performs a POST whose response payload is discarded after status
// verification.
func (r *Router) PostVoid(ctx context.Context, route RouteType, params any, useDFPPA bool) error {
	body, err := marshalParams(params)
	if err != nil {
		return err
	}
	_, err = r.perform(ctx, MethodPost(body), route, useDFPPA)
	return err
}

// PutVoid performs a PUT whose response payload is discarded.
func (r *Router) PutVoid(ctx context.Context, route RouteType, params any) error {
	body, err := marshalParams(params)
	if err != nil {
		return err
	}
	_, err = r.perform(ctx, MethodPut(body), route, false)
	return err
}

// DeleteVoid performs a DELETE whose response payload is discarded.
func (r *Router) DeleteVoid(ctx context.Context, route RouteType) error {
	_, err := r.perform(ctx, MethodDelete(), route, false)
	return err
}

// ============================================================================
// Pipeline
// ============================================================================

// perform runs the shared request cycle: configuration check, URL build,
// transport, status verification. A 401 resets all session state before the
// error propagates; payload inspection never runs on a failed status.
func (r *Router) perform(ctx context.Context, method Method, route RouteType, useDFPPA bool) ([]byte, error) {
	cfg := r.getConfig()
	if cfg == nil {
		return nil, r.notConfigured
	}

	u := cfg.urlFor(r.base.AppendingPath(route.Path()))

	body, resp, err := r.client.PerformRequest(ctx, method, u, cfg.DFPEnabled, cfg.DFPAuthMode, useDFPPA)
	if err != nil {
		return nil, err
	}

	if err := verifyStatus(resp, body); err != nil {
		if resp.StatusCode == http.StatusUnauthorized {
			r.state.ResetSession()
		}
		return nil, err
	}
	return body, nil
}

func performTyped[T any](ctx context.Context, r *Router, method Method, route RouteType, useDFPPA bool) (T, error) {
	var zero T

	body, err := r.perform(ctx, method, route, useDFPPA)
	if err != nil {
		return zero, err
	}

	var envelope DataContainer[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return zero, synthesizeDecodeError(body)
	}

	r.applySessionUpdates(ctx, envelope.Data)

	var value T
	if err := json.Unmarshal(envelope.Data, &value); err != nil {
		return zero, synthesizeDecodeError(body)
	}
	return value, nil
}

func marshalParams(params any) ([]byte, error) {
	if params == nil {
		return nil, nil
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request parameters: %w", err)
	}
	return body, nil
}

// synthesizeDecodeError wraps an undecodable success body as a typed API
// error so callers never see a raw decode failure.
func synthesizeDecodeError(body []byte) *APIError {
	message := fmt.Sprintf("Client networking error. Response: %s", body)
	return &APIError{
		StytchError: StytchError{
			Name:    "stytch_api_error",
			Message: message,
		},
		StatusCode:   http.StatusOK,
		ErrorType:    "unknown_error",
		ErrorMessage: message,
	}
}

// ============================================================================
// Session-bearing payload dispatch
// ============================================================================

// applySessionUpdates inspects a decoded payload against the session-bearing
// shapes in fixed priority order and applies exactly the first matching
// shape's state update. Non-matching payloads pass through untouched.
func (r *Router) applySessionUpdates(ctx context.Context, raw json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return
	}

	has := func(key string) bool {
		v, ok := fields[key]
		return ok && string(v) != "null"
	}

	dispatch := []struct {
		match func() bool
		apply func()
	}{
		{
			// Consumer auth: full user session plus both token forms.
			match: func() bool {
				return has("user") && has("session") && has("session_token") && has("session_jwt")
			},
			apply: func() { r.applyConsumerAuth(ctx, raw) },
		},
		{
			// B2B auth: full member session with member and organization.
			match: func() bool {
				return has("member_session") && has("member") && has("organization") && has("session_token")
			},
			apply: func() { r.applyB2BAuth(raw) },
		},
		{
			// B2B MFA auth: member session may be absent pending MFA.
			match: func() bool {
				return has("member") && has("organization") && has("intermediate_session_token")
			},
			apply: func() { r.applyB2BMFAAuth(raw) },
		},
		{
			// Discovery: a partial-authentication token only.
			match: func() bool { return has("intermediate_session_token") },
			apply: func() { r.applyDiscovery(raw) },
		},
	}

	for _, shape := range dispatch {
		if shape.match() {
			shape.apply()
			return
		}
	}
}

func (r *Router) applyConsumerAuth(ctx context.Context, raw json.RawMessage) {
	var data AuthenticateResponseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	cfg := r.getConfig()
	r.state.Sessions.UpdateSession(SessionTypeUser, SessionTokens{
		JWT:    data.SessionJWT,
		Opaque: data.SessionToken,
	}, cfg.HostURL)
	r.state.Users.Update(data.User)

	r.cleanupBiometricRegistrations(ctx, data.User)
}

func (r *Router) applyB2BAuth(raw json.RawMessage) {
	var data B2BAuthenticateResponseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	cfg := r.getConfig()
	r.state.Sessions.UpdateSession(SessionTypeMember, SessionTokens{
		JWT:    data.SessionJWT,
		Opaque: data.SessionToken,
	}, cfg.HostURL)
	r.state.Members.Update(data.Member)
	r.state.Organizations.Update(data.Organization)
}

func (r *Router) applyB2BMFAAuth(raw json.RawMessage) {
	var data B2BMFAAuthenticateResponseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	if data.MemberSession != nil {
		cfg := r.getConfig()
		r.state.Sessions.UpdateSession(SessionTypeMember, SessionTokens{
			JWT:    data.SessionJWT,
			Opaque: data.SessionToken,
		}, cfg.HostURL)
	} else {
		// MFA still pending: only the intermediate token exists.
		r.state.Sessions.UpdateIntermediateSessionToken(data.IntermediateSessionToken)
	}

	// Member and organization update on both branches.
	r.state.Members.Update(data.Member)
	r.state.Organizations.Update(data.Organization)
}

func (r *Router) applyDiscovery(raw json.RawMessage) {
	var data DiscoveryResponseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	r.state.Sessions.UpdateIntermediateSessionToken(data.IntermediateSessionToken)
}

// cleanupBiometricRegistrations opportunistically drops the locally stored
// biometric private-key registration when the server's returned registration
// list no longer includes it.
func (r *Router) cleanupBiometricRegistrations(ctx context.Context, user User) {
	if r.keychain == nil {
		return
	}

	results, err := r.keychain.Get(ctx, keychain.ItemPrivateKeyRegistration)
	if err != nil {
		if !errors.Is(err, keychain.ErrItemNotFound) {
			r.logger.Warn("keychain lookup failed during biometric cleanup", "error", err)
		}
		return
	}

	known := make(map[string]bool, len(user.BiometricRegistrations))
	for _, reg := range user.BiometricRegistrations {
		known[reg.BiometricRegistrationID] = true
	}

	for _, result := range results {
		if !known[result.Account] {
			if err := r.keychain.RemoveItem(ctx, keychain.ItemPrivateKeyRegistration); err != nil {
				r.logger.Warn("failed to remove stale biometric registration", "error", err)
			}
			return
		}
	}
}
