package stytch

import (
	"net/url"
	"strings"
)

const (
	liveHost = "api.stytch.com"
	testHost = "test.stytch.com"

	// Versioned path prefix appended to both hosts.
	sdkPathPrefix = "/sdk/v1/"

	// Public tokens carrying this prefix belong to sandbox projects and
	// route to the test host.
	testTokenPrefix = "public-token-test"

	defaultDFPPADomain = "telemetry.stytch.com"
)

// DFPProtectedAuthMode selects how outbound requests are decorated with
// anti-abuse signals.
type DFPProtectedAuthMode int

const (
	// DFPModeObservation injects telemetry on every protected request and
	// never retries.
	DFPModeObservation DFPProtectedAuthMode = iota

	// DFPModeDecisioning injects telemetry and, on a 403, retries exactly
	// once with fresh telemetry plus a CAPTCHA token.
	DFPModeDecisioning
)

// Configuration is the immutable project configuration captured at
// configure-time. It may be read concurrently by any number of in-flight
// requests; nothing mutates it after Configure.
type Configuration struct {
	// PublicToken identifies the project. Tokens prefixed with
	// "public-token-test" route to the sandbox host.
	PublicToken string

	// HostURL optionally names the host app's own domain, forwarded to
	// session updates for cookie scoping. It does not affect BaseURL.
	HostURL *url.URL

	// DFPPADomain is the telemetry collection domain. Defaults to the
	// production telemetry domain when empty.
	DFPPADomain string

	// CaptchaSiteKey enables CAPTCHA decoration when non-empty.
	CaptchaSiteKey string

	// DFPEnabled turns device-fingerprint decoration on. When false,
	// protected requests only carry a CAPTCHA token (if configured).
	DFPEnabled bool

	// DFPAuthMode selects observation or decisioning behavior when
	// DFPEnabled is true.
	DFPAuthMode DFPProtectedAuthMode
}

// BaseURL derives the API base URL from the public token: sandbox projects
// hit the test host, everything else hits production. Both carry the
// versioned path prefix.
func (c Configuration) BaseURL() *url.URL {
	host := liveHost
	if strings.HasPrefix(c.PublicToken, testTokenPrefix) {
		host = testHost
	}
	return &url.URL{Scheme: "https", Host: host, Path: sdkPathPrefix}
}

// dfppaDomain returns the configured telemetry domain or the default.
func (c Configuration) dfppaDomain() string {
	if c.DFPPADomain != "" {
		return c.DFPPADomain
	}
	return defaultDFPPADomain
}

// urlFor resolves a route path against the base URL.
func (c Configuration) urlFor(path Path) *url.URL {
	base := c.BaseURL()
	return base.JoinPath(path.String())
}
