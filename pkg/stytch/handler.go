package stytch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// TelemetryProvider produces an opaque device-fingerprint telemetry id. It
// never fails; degraded collection yields a sentinel value.
type TelemetryProvider interface {
	GetTelemetryID(ctx context.Context, publicToken, dfppaDomain string) string
}

// CAPTCHAProvider executes CAPTCHA challenges. Execution never fails; a
// degraded provider yields an empty token.
type CAPTCHAProvider interface {
	IsConfigured() bool
	ExecuteRecaptcha(ctx context.Context) string
}

// SendFunc forwards a decorated request over the transport.
type SendFunc func(req *http.Request) ([]byte, *http.Response, error)

// RequestHandler decorates outbound requests according to the project's
// anti-abuse mode, injecting telemetry ids and CAPTCHA tokens into the JSON
// body before forwarding.
type RequestHandler struct {
	dfp         TelemetryProvider
	captcha     CAPTCHAProvider
	publicToken string
	dfppaDomain string
}

// NewRequestHandler wires the anti-abuse providers for a project.
func NewRequestHandler(dfp TelemetryProvider, captcha CAPTCHAProvider, publicToken, dfppaDomain string) *RequestHandler {
	return &RequestHandler{
		dfp:         dfp,
		captcha:     captcha,
		publicToken: publicToken,
		dfppaDomain: dfppaDomain,
	}
}

// HandleDFPDisabled forwards the request unchanged unless CAPTCHA is
// configured, in which case a captcha_token is injected first.
func (h *RequestHandler) HandleDFPDisabled(ctx context.Context, req *http.Request, body []byte, send SendFunc) ([]byte, *http.Response, error) {
	if h.captcha == nil || !h.captcha.IsConfigured() {
		return send(req)
	}

	decorated := injectField(body, "captcha_token", h.captcha.ExecuteRecaptcha(ctx))
	return send(cloneWithBody(req, decorated))
}

// HandleDFPObservationMode always injects a fresh telemetry id, plus a
// captcha_token when CAPTCHA is configured. The request is forwarded once;
// observation never retries.
func (h *RequestHandler) HandleDFPObservationMode(ctx context.Context, req *http.Request, body []byte, send SendFunc) ([]byte, *http.Response, error) {
	decorated := injectField(body, "dfp_telemetry_id", h.telemetryID(ctx))
	if h.captcha != nil && h.captcha.IsConfigured() {
		decorated = injectField(decorated, "captcha_token", h.captcha.ExecuteRecaptcha(ctx))
	}
	return send(cloneWithBody(req, decorated))
}

// HandleDFPDecisioningMode injects a fresh telemetry id and forwards. If and
// only if the response status is exactly 403, a second request is built from
// the original undecorated body with a new telemetry id and a captcha_token,
// and its result is final. This single-shot retry is the pipeline's only
// retry path; the second request is issued strictly after the first response
// is received.
func (h *RequestHandler) HandleDFPDecisioningMode(ctx context.Context, req *http.Request, body []byte, send SendFunc) ([]byte, *http.Response, error) {
	decorated := injectField(body, "dfp_telemetry_id", h.telemetryID(ctx))

	respBody, resp, err := send(cloneWithBody(req, decorated))
	if err != nil {
		return respBody, resp, err
	}
	if resp.StatusCode != http.StatusForbidden {
		return respBody, resp, nil
	}

	retry := injectField(body, "dfp_telemetry_id", h.telemetryID(ctx))
	var captchaToken string
	if h.captcha != nil {
		captchaToken = h.captcha.ExecuteRecaptcha(ctx)
	}
	retry = injectField(retry, "captcha_token", captchaToken)

	return send(cloneWithBody(req, retry))
}

func (h *RequestHandler) telemetryID(ctx context.Context) string {
	if h.dfp == nil {
		return ""
	}
	return h.dfp.GetTelemetryID(ctx, h.publicToken, h.dfppaDomain)
}

// injectField merges one top-level key into a JSON object body. A body that
// is empty, malformed, or not a JSON object is treated as an empty object:
// malformed input is not an error at this layer, downstream status
// validation surfaces real failures.
func injectField(body []byte, key, value string) []byte {
	fields := make(map[string]json.RawMessage)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			fields = make(map[string]json.RawMessage)
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return body
	}
	fields[key] = encoded

	merged, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return merged
}

// cloneWithBody returns a copy of req carrying the given body. The original
// request is never mutated, so the decisioning retry can rebuild from it.
func cloneWithBody(req *http.Request, body []byte) *http.Request {
	clone := req.Clone(req.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.ContentLength = int64(len(body))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return clone
}
