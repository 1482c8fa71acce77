// Package captcha executes CAPTCHA challenges for anti-abuse request
// decoration. Like telemetry collection, challenge execution is best-effort:
// a provider failure degrades to an empty token instead of an error so the
// authentication call it protects is never blocked by challenge
// infrastructure issues.
package captcha

import (
	"context"
	"log/slog"
	"sync"

	"github.com/stytchauth/stytch-go-client/pkg/slogx"
)

// ChallengeClient executes a single CAPTCHA challenge and returns its token.
type ChallengeClient interface {
	Execute(ctx context.Context) (string, error)
}

// ClientFactory constructs a challenge client for a site key. Construction
// may fail (e.g. the underlying provider library cannot initialize); the
// Provider treats that as a degraded state, not an error.
type ClientFactory func(siteKey string) (ChallengeClient, error)

// Provider lazily obtains a challenge client for its site key and executes
// challenges through it. The client is constructed once, on first use.
type Provider struct {
	siteKey    string
	newClient  ClientFactory
	logger     *slog.Logger

	mu     sync.Mutex
	client ChallengeClient
	tried  bool
}

// NewProvider creates a Provider. An empty site key or nil factory yields an
// unconfigured provider whose ExecuteRecaptcha always returns "".
func NewProvider(siteKey string, factory ClientFactory, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &Provider{siteKey: siteKey, newClient: factory, logger: logger}
}

// IsConfigured reports whether a CAPTCHA site key was provided.
func (p *Provider) IsConfigured() bool {
	return p.siteKey != "" && p.newClient != nil
}

// ExecuteRecaptcha runs a challenge and returns its token. Any failure, from
// client construction through challenge execution, resolves to "".
func (p *Provider) ExecuteRecaptcha(ctx context.Context) string {
	if !p.IsConfigured() {
		return ""
	}

	client := p.getClient()
	if client == nil {
		return ""
	}

	token, err := client.Execute(ctx)
	if err != nil {
		p.logger.Warn("captcha challenge failed", "error", err)
		return ""
	}
	return token
}

// getClient returns the lazily constructed challenge client, or nil if
// construction failed. Construction is attempted only once per provider.
func (p *Provider) getClient() ChallengeClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tried {
		return p.client
	}
	p.tried = true

	client, err := p.newClient(p.siteKey)
	if err != nil {
		p.logger.Warn("captcha client construction failed", "error", err)
		return nil
	}
	p.client = client
	return p.client
}
