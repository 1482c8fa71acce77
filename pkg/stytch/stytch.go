package stytch

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/stytchauth/stytch-go-client/internal/captcha"
	"github.com/stytchauth/stytch-go-client/internal/dfp"
	"github.com/stytchauth/stytch-go-client/internal/keychain"
	"github.com/stytchauth/stytch-go-client/pkg/slogx"
)

// Options collects the collaborator overrides accepted at construction.
type Options struct {
	// HTTPClient overrides the transport client.
	HTTPClient *http.Client

	// Keychain overrides the local secure-item store. Defaults to an
	// in-memory store.
	Keychain keychain.Client

	// CollectorHost runs DFP telemetry collections. Nil leaves the platform
	// without DFP support: protected requests degrade to the
	// unable-to-inject sentinel path.
	CollectorHost dfp.CollectorHost

	// CaptchaFactory constructs the CAPTCHA challenge client for the
	// configured site key.
	CaptchaFactory captcha.ClientFactory

	// Logger receives degradation diagnostics. Defaults to a discard
	// logger; the SDK never logs the errors it propagates.
	Logger *slog.Logger

	// TelemetryRate caps DFP collector launches. Nil means unlimited.
	TelemetryRate *rate.Limiter
}

// Option mutates Options.
type Option func(*Options)

func WithHTTPClient(c *http.Client) Option        { return func(o *Options) { o.HTTPClient = c } }
func WithKeychain(kc keychain.Client) Option      { return func(o *Options) { o.Keychain = kc } }
func WithCollectorHost(h dfp.CollectorHost) Option { return func(o *Options) { o.CollectorHost = h } }
func WithCaptchaFactory(f captcha.ClientFactory) Option {
	return func(o *Options) { o.CaptchaFactory = f }
}
func WithLogger(l *slog.Logger) Option            { return func(o *Options) { o.Logger = l } }
func WithTelemetryRate(l *rate.Limiter) Option    { return func(o *Options) { o.TelemetryRate = l } }

// client is the shared core behind the consumer and B2B facades.
type client struct {
	config atomic.Pointer[Configuration]
	opts   Options
	router *Router

	configureMu sync.Mutex
}

func newClient(notConfigured *SDKError, opts ...Option) *client {
	c := &client{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	if c.opts.Logger == nil {
		c.opts.Logger = slogx.Discard()
	}
	if c.opts.Keychain == nil {
		c.opts.Keychain = keychain.NewMemoryClient()
	}

	state := NewState(c.opts.Keychain)

	// The router reads configuration through the atomic pointer so calls
	// made before Configure fail with the right typed error.
	c.router = NewRouter(
		c.config.Load,
		nil, // networking client installed by Configure
		state,
		c.opts.Keychain,
		notConfigured,
		c.opts.Logger,
	)
	return c
}

// configure validates and installs the immutable configuration, then wires
// the networking stack for it. A second call fails: the configuration is
// read-only once set.
func (c *client) configure(cfg Configuration) error {
	if cfg.PublicToken == "" {
		return ErrMissingPublicToken
	}

	c.configureMu.Lock()
	defer c.configureMu.Unlock()
	if c.config.Load() != nil {
		return ErrAlreadyConfigured
	}

	frozen := cfg

	// A nil collector host still yields a working provider: protected
	// requests resolve to the unable-to-inject sentinel instead of failing.
	dfpOpts := []dfp.Option{dfp.WithLogger(c.opts.Logger)}
	if c.opts.TelemetryRate != nil {
		dfpOpts = append(dfpOpts, dfp.WithLimiter(c.opts.TelemetryRate))
	}
	dfpProvider := dfp.NewProvider(c.opts.CollectorHost, dfpOpts...)
	captchaProvider := captcha.NewProvider(cfg.CaptchaSiteKey, c.opts.CaptchaFactory, c.opts.Logger)
	handler := NewRequestHandler(dfpProvider, captchaProvider, frozen.PublicToken, frozen.dfppaDomain())

	headers := DefaultHeaderProvider(frozen.PublicToken, c.router.state.Sessions)
	c.router.client = NewNetworkingClient(c.opts.HTTPClient, headers, handler)

	// The configuration publishes last: any call that loads it non-nil is
	// guaranteed to observe the networking client installed above.
	c.config.Store(&frozen)
	return nil
}

// ============================================================================
// Consumer client
// ============================================================================

// ConsumerClient is the consumer-product SDK entry point. Construct with
// NewConsumerClient, then call Configure before making API calls.
type ConsumerClient struct {
	core *client

	MagicLinks *MagicLinksClient
	OTPs       *OTPClient
	Passwords  *PasswordsClient
	Sessions   *SessionsClient
	TOTPs      *TOTPClient
	Users      *UsersClient
}

// NewConsumerClient creates an unconfigured consumer client. Every API call
// fails with ErrConsumerSDKNotConfigured until Configure succeeds.
func NewConsumerClient(opts ...Option) *ConsumerClient {
	core := newClient(ErrConsumerSDKNotConfigured, opts...)
	return &ConsumerClient{
		core:       core,
		MagicLinks: &MagicLinksClient{router: core.router},
		OTPs:       &OTPClient{router: core.router},
		Passwords:  &PasswordsClient{router: core.router},
		Sessions:   &SessionsClient{router: core.router},
		TOTPs:      &TOTPClient{router: core.router},
		Users:      &UsersClient{router: core.router},
	}
}

// Configure installs the project configuration. It may be called once.
func (c *ConsumerClient) Configure(cfg Configuration) error {
	return c.core.configure(cfg)
}

// State exposes the shared session/user caches.
func (c *ConsumerClient) State() *State { return c.core.router.state }

// ============================================================================
// B2B client
// ============================================================================

// B2BClient is the B2B-product SDK entry point.
type B2BClient struct {
	core *client

	MagicLinks *B2BMagicLinksClient
	Sessions   *B2BSessionsClient
	Discovery  *DiscoveryClient
	TOTPs      *B2BTOTPClient
}

// NewB2BClient creates an unconfigured B2B client. Every API call fails with
// ErrB2BSDKNotConfigured until Configure succeeds.
func NewB2BClient(opts ...Option) *B2BClient {
	core := newClient(ErrB2BSDKNotConfigured, opts...)
	return &B2BClient{
		core:       core,
		MagicLinks: &B2BMagicLinksClient{router: core.router},
		Sessions:   &B2BSessionsClient{router: core.router},
		Discovery:  &DiscoveryClient{router: core.router},
		TOTPs:      &B2BTOTPClient{router: core.router},
	}
}

// Configure installs the project configuration. It may be called once.
func (c *B2BClient) Configure(cfg Configuration) error {
	return c.core.configure(cfg)
}

// State exposes the shared session/member/organization caches.
func (c *B2BClient) State() *State { return c.core.router.state }

// ============================================================================
// Deeplinks
// ============================================================================

// DeeplinkTokenType classifies the token carried by a deeplink URL.
type DeeplinkTokenType string

const (
	DeeplinkTokenTypeMagicLinks DeeplinkTokenType = "magic_links"
	DeeplinkTokenTypeOAuth      DeeplinkTokenType = "oauth"
	DeeplinkTokenTypePasswords  DeeplinkTokenType = "reset_password"
)

// ParseDeeplink extracts the token and its type from an incoming deeplink
// URL. URLs without a token parameter yield ErrMissingDeeplinkToken.
func ParseDeeplink(u *url.URL) (DeeplinkTokenType, string, error) {
	query := u.Query()
	token := query.Get("token")
	if token == "" {
		return "", "", ErrMissingDeeplinkToken
	}

	tokenType := DeeplinkTokenType(query.Get("stytch_token_type"))
	if tokenType == "" {
		tokenType = DeeplinkTokenTypeMagicLinks
	}
	return tokenType, token, nil
}
