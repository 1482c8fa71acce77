package stytch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ============================================================================
// Error hierarchy
// ============================================================================

// StytchError is the base of the SDK error family. Every error surfaced by
// the request pipeline is an *APIError or an *SDKError, both of which embed
// this comparable value.
type StytchError struct {
	// Name identifies the error kind, e.g. "stytch_api_error".
	Name string

	// Message is a human-readable description.
	Message string
}

func (e StytchError) Error() string { return e.Message }

// APIError is a server-reported error decoded from an HTTP error response,
// or synthesized when the body does not decode.
type APIError struct {
	StytchError `json:"-"`

	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"status_code"`

	// RequestID is the server-assigned request id, when present.
	RequestID string `json:"request_id,omitempty"`

	// ErrorType is the server's machine-readable error code, e.g.
	// "unauthorized_credentials". Synthesized errors use "unknown_error".
	ErrorType string `json:"error_type"`

	// ErrorMessage is the server's human-readable description.
	ErrorMessage string `json:"error_message"`

	// ErrorURL links to documentation for the error, when present.
	ErrorURL string `json:"error_url,omitempty"`
}

// SDKError is a client-detected error raised before or after the network
// call, e.g. calling into an unconfigured client.
type SDKError struct {
	StytchError

	// ErrorType is a machine-readable code, when one applies.
	ErrorType string

	// URL links to relevant documentation, when one applies.
	URL string
}

// ============================================================================
// Predefined SDK errors
// ============================================================================

var (
	// ErrConsumerSDKNotConfigured is returned by every consumer call made
	// before Configure succeeds.
	ErrConsumerSDKNotConfigured = &SDKError{
		StytchError: StytchError{
			Name:    "sdk_not_configured",
			Message: "configure the consumer client before making API calls",
		},
		ErrorType: "consumer_sdk_not_configured",
		URL:       "https://stytch.com/docs/sdks",
	}

	// ErrB2BSDKNotConfigured is the B2B counterpart of
	// ErrConsumerSDKNotConfigured.
	ErrB2BSDKNotConfigured = &SDKError{
		StytchError: StytchError{
			Name:    "sdk_not_configured",
			Message: "configure the B2B client before making API calls",
		},
		ErrorType: "b2b_sdk_not_configured",
		URL:       "https://stytch.com/docs/b2b/sdks",
	}

	// ErrAlreadyConfigured is returned when Configure is called twice; the
	// configuration is immutable once set.
	ErrAlreadyConfigured = &SDKError{
		StytchError: StytchError{
			Name:    "sdk_already_configured",
			Message: "the client is already configured",
		},
		ErrorType: "sdk_already_configured",
	}

	// ErrMissingPublicToken is returned by Configure when no public token
	// is provided.
	ErrMissingPublicToken = &SDKError{
		StytchError: StytchError{
			Name:    "missing_public_token",
			Message: "a public token is required to configure the client",
		},
		ErrorType: "missing_public_token",
	}

	// ErrMissingDeeplinkToken is returned when a deeplink URL carries no
	// recognizable token parameter.
	ErrMissingDeeplinkToken = &SDKError{
		StytchError: StytchError{
			Name:    "deeplink_missing_token",
			Message: "the deeplink URL does not contain a token",
		},
		ErrorType: "deeplink_missing_token",
	}
)

// ============================================================================
// Status verification / error normalization
// ============================================================================

// verifyStatus checks an HTTP response status against the success range
// [200,400). Outside it, the body is decoded as a structured API error; if
// that fails, an APIError with errorType "unknown_error" is synthesized so
// callers always receive a typed error, never a raw decode failure.
func verifyStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorType != "" {
		apiErr.StatusCode = resp.StatusCode
		apiErr.Name = "stytch_api_error"
		apiErr.Message = apiErr.ErrorMessage
		return &apiErr
	}

	message := "Client networking error."
	if resp.StatusCode >= http.StatusInternalServerError {
		message = "Server networking error."
	}
	if len(body) > 0 {
		message = fmt.Sprintf("%s Response: %s", message, body)
	}

	return &APIError{
		StytchError: StytchError{
			Name:    "stytch_api_error",
			Message: message,
		},
		StatusCode:   resp.StatusCode,
		ErrorType:    "unknown_error",
		ErrorMessage: message,
	}
}
