package stytch

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/stytchauth/stytch-go-client/pkg/idx"
)

// Method is the HTTP method tagged union. POST and PUT carry an optional
// raw-encoded JSON body; GET and DELETE never do.
type Method struct {
	verb string
	body []byte
}

func MethodGet() Method              { return Method{verb: http.MethodGet} }
func MethodDelete() Method           { return Method{verb: http.MethodDelete} }
func MethodPost(body []byte) Method  { return Method{verb: http.MethodPost, body: body} }
func MethodPut(body []byte) Method   { return Method{verb: http.MethodPut, body: body} }

// Verb returns the HTTP verb this method maps to.
func (m Method) Verb() string { return m.verb }

// Body returns the raw JSON body, nil for GET/DELETE.
func (m Method) Body() []byte { return m.body }

// HeaderProvider supplies the headers attached to every outbound request.
type HeaderProvider func() map[string]string

// DefaultHeaderProvider authenticates with HTTP basic auth: the public token
// as username and, when a session is active, the opaque session token as
// password (the public token again otherwise).
func DefaultHeaderProvider(publicToken string, sessions *SessionStorage) HeaderProvider {
	return func() map[string]string {
		password := publicToken
		if tokens, active := sessions.Tokens(); active && tokens.Opaque != "" {
			password = tokens.Opaque
		}
		credentials := base64.StdEncoding.EncodeToString([]byte(publicToken + ":" + password))
		return map[string]string{
			"Authorization":    "Basic " + credentials,
			"Content-Type":     "application/json",
			"X-SDK-Client":     "stytch-go-client/" + Version,
			"X-SDK-Request-ID": idx.New().String(),
		}
	}
}

// Version is the SDK version reported to the API.
const Version = "1.0.0"

// NetworkingClient owns header injection, HTTP method mapping, and the
// actual transport call. Anti-abuse decoration is delegated to its
// RequestHandler when the caller opts in per request.
type NetworkingClient struct {
	httpClient *http.Client
	headers    HeaderProvider
	handler    *RequestHandler
}

// NewNetworkingClient builds a client. A nil httpClient falls back to a
// 30s-timeout default; a nil handler disables anti-abuse decoration entirely
// (requests pass through regardless of the DFPPA flag).
func NewNetworkingClient(httpClient *http.Client, headers HeaderProvider, handler *RequestHandler) *NetworkingClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &NetworkingClient{httpClient: httpClient, headers: headers, handler: handler}
}

// PerformRequest executes one request cycle. useDFPPA is a per-call flag set
// by the router per route: only abuse-sensitive endpoints pay the anti-abuse
// overhead. Decoration happens only when the caller asks for it and a
// handler is available.
func (c *NetworkingClient) PerformRequest(
	ctx context.Context,
	method Method,
	u *url.URL,
	dfpEnabled bool,
	dfpAuthMode DFPProtectedAuthMode,
	useDFPPA bool,
) ([]byte, *http.Response, error) {
	req, err := c.newRequest(ctx, method, u)
	if err != nil {
		return nil, nil, err
	}

	if !useDFPPA || c.handler == nil {
		return c.send(req)
	}

	switch {
	case !dfpEnabled:
		return c.handler.HandleDFPDisabled(ctx, req, method.body, c.send)
	case dfpAuthMode == DFPModeObservation:
		return c.handler.HandleDFPObservationMode(ctx, req, method.body, c.send)
	default:
		return c.handler.HandleDFPDecisioningMode(ctx, req, method.body, c.send)
	}
}

func (c *NetworkingClient) newRequest(ctx context.Context, method Method, u *url.URL) (*http.Request, error) {
	var body io.Reader
	if len(method.body) > 0 {
		body = bytes.NewReader(method.body)
	}

	req, err := http.NewRequestWithContext(ctx, method.verb, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.headers != nil {
		for key, value := range c.headers() {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

// send executes the request and drains the body so callers always get the
// full payload alongside the response metadata.
func (c *NetworkingClient) send(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp, nil
}
