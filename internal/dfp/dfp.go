// Package dfp collects device-fingerprint telemetry ids. Collection is
// best-effort by policy: a telemetry failure must never block or fail the
// authentication call it decorates, so the provider resolves every internal
// failure to a sentinel string instead of returning an error.
package dfp

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/stytchauth/stytch-go-client/pkg/idx"
	"github.com/stytchauth/stytch-go-client/pkg/slogx"
)

// Sentinel telemetry ids returned when collection cannot produce a real one.
const (
	// SentinelUnableToInject is resolved immediately when no collector host
	// is available to run the collection script.
	SentinelUnableToInject = "unable-to-inject-dfp"

	// SentinelCollectionFailed is resolved when a collector was launched but
	// collection failed, was rate limited, or was cancelled.
	SentinelCollectionFailed = "dfp-collection-failed"
)

// CollectorRequest describes a single telemetry collection to a host.
type CollectorRequest struct {
	// RequestID correlates this collection with its waiter.
	RequestID idx.ID

	// PublicToken identifies the project the telemetry belongs to.
	PublicToken string

	// SubmitURL is the fully qualified collection endpoint.
	SubmitURL string

	// Respond delivers the collected telemetry id. It must be called at most
	// once; late or duplicate calls are dropped by the provider.
	Respond func(telemetryID string)
}

// CollectorHost runs a collection surface. Launch starts the collection and
// returns once it is underway; the result arrives through req.Respond.
type CollectorHost interface {
	Launch(ctx context.Context, req CollectorRequest) error
}

// Provider produces telemetry ids with per-request completion bookkeeping.
// Each in-flight collection is keyed by its request id so concurrent calls
// never cross-talk; completions are resolved and removed atomically.
type Provider struct {
	host    CollectorHost
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[idx.ID]chan string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLimiter caps the rate of collector launches. Denied launches resolve to
// the collection-failed sentinel rather than waiting.
func WithLimiter(l *rate.Limiter) Option {
	return func(p *Provider) { p.limiter = l }
}

// WithLogger installs a logger for degradation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider backed by the given host. A nil host is
// valid and makes every call resolve to SentinelUnableToInject.
func NewProvider(host CollectorHost, opts ...Option) *Provider {
	p := &Provider{
		host:    host,
		logger:  slogx.Discard(),
		pending: make(map[idx.ID]chan string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetTelemetryID collects a fresh telemetry id. It never returns an error:
// any failure resolves to a sentinel value. Each call produces a new id; the
// provider caches nothing across calls.
func (p *Provider) GetTelemetryID(ctx context.Context, publicToken, dfppaDomain string) string {
	if p.host == nil {
		return SentinelUnableToInject
	}

	if p.limiter != nil && !p.limiter.Allow() {
		p.logger.Warn("dfp collection rate limited")
		return SentinelCollectionFailed
	}

	id := idx.New()
	ch := p.register(id)
	defer p.remove(id)

	req := CollectorRequest{
		RequestID:   id,
		PublicToken: publicToken,
		SubmitURL:   "https://" + dfppaDomain + "/submit",
		Respond: func(telemetryID string) {
			p.resolve(id, telemetryID)
		},
	}

	if err := p.host.Launch(ctx, req); err != nil {
		p.logger.Warn("dfp collector launch failed", "error", err)
		return SentinelCollectionFailed
	}

	select {
	case telemetryID := <-ch:
		if telemetryID == "" {
			return SentinelCollectionFailed
		}
		return telemetryID
	case <-ctx.Done():
		return SentinelCollectionFailed
	}
}

// Pending reports the number of in-flight collections. Exposed for tests.
func (p *Provider) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Provider) register(id idx.ID) chan string {
	ch := make(chan string, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	return ch
}

// resolve completes the waiter for id and removes it in one step. Messages
// for unknown ids (already resolved, cancelled, or bogus) are dropped.
func (p *Provider) resolve(id idx.ID, telemetryID string) {
	p.mu.Lock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()

	if ok {
		ch <- telemetryID
	}
}

func (p *Provider) remove(id idx.ID) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}
