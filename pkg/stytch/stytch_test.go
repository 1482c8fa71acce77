package stytch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/stytchauth/stytch-go-client/internal/captcha"
	"github.com/stytchauth/stytch-go-client/internal/dfp"
)

func newTestConsumerClient(t *testing.T, handler http.Handler, opts ...Option) *ConsumerClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}})}, opts...)
	client := NewConsumerClient(opts...)
	require.NoError(t, client.Configure(Configuration{PublicToken: "public-token-test-abc123"}))
	return client
}

func TestConfigureValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing public token", func(t *testing.T) {
		client := NewConsumerClient()
		require.ErrorIs(t, client.Configure(Configuration{}), ErrMissingPublicToken)
	})

	t.Run("configure is one-shot", func(t *testing.T) {
		client := NewConsumerClient()
		require.NoError(t, client.Configure(Configuration{PublicToken: "public-token-test-abc"}))
		require.ErrorIs(t, client.Configure(Configuration{PublicToken: "public-token-test-def"}), ErrAlreadyConfigured)
	})

	t.Run("calls before configure fail typed", func(t *testing.T) {
		consumer := NewConsumerClient()
		_, err := consumer.Users.Me(context.Background())
		require.ErrorIs(t, err, ErrConsumerSDKNotConfigured)

		b2b := NewB2BClient()
		_, err = b2b.Sessions.Authenticate(context.Background(), B2BSessionsAuthenticateParams{})
		require.ErrorIs(t, err, ErrB2BSDKNotConfigured)
	})
}

func TestConfigureConcurrentWithRequests(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"user_id": "user-1"}}`))
	}))
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := NewConsumerClient(WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}))

	// Callers racing Configure must see either the typed not-configured
	// error or a fully wired client, never a partially installed one.
	const callers = 8
	results := make([][]error, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			for j := 0; j < 25; j++ {
				_, err := client.Users.Me(context.Background())
				results[i] = append(results[i], err)
			}
		}(i)
	}
	close(start)
	require.NoError(t, client.Configure(Configuration{PublicToken: "public-token-test-abc123"}))
	wg.Wait()

	for _, errs := range results {
		for _, err := range errs {
			if err != nil {
				require.True(t, errors.Is(err, ErrConsumerSDKNotConfigured), "unexpected error: %v", err)
			}
		}
	}
}

func TestMagicLinkAuthenticateFlow(t *testing.T) {
	t.Parallel()

	var authHeaders []string
	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/v1/magic_links/email/login_or_create", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": {"request_id": "req-1"}}`))
	})
	mux.HandleFunc("/sdk/v1/magic_links/authenticate", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))

		var params MagicLinksAuthenticateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "deeplink-token-1", params.Token)

		_, _ = w.Write([]byte(consumerAuthEnvelope))
	})
	mux.HandleFunc("/sdk/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": {"user_id": "user-1"}}`))
	})

	client := newTestConsumerClient(t, mux)

	_, err := client.MagicLinks.LoginOrCreate(context.Background(), MagicLinksEmailParams{Email: "a@b.com"})
	require.NoError(t, err)

	data, err := client.MagicLinks.Authenticate(context.Background(), MagicLinksAuthenticateParams{Token: "deeplink-token-1"})
	require.NoError(t, err)
	require.Equal(t, "user-1", data.User.UserID)

	user, err := client.Users.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "user-1", user.UserID)

	// Before authentication the basic-auth password is the public token;
	// afterwards it is the opaque session token.
	require.Len(t, authHeaders, 3)
	_, password := decodeBasicAuth(t, authHeaders[0])
	require.Equal(t, "public-token-test-abc123", password)
	_, password = decodeBasicAuth(t, authHeaders[2])
	require.Equal(t, "opaque-token-1", password)
}

func TestSessionRevokeClearsLocalState(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/v1/sessions/authenticate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(consumerAuthEnvelope))
	})
	mux.HandleFunc("/sdk/v1/sessions/revoke", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {}}`))
	})

	client := newTestConsumerClient(t, mux)

	_, err := client.Sessions.Authenticate(context.Background(), SessionsAuthenticateParams{})
	require.NoError(t, err)
	_, active := client.State().Sessions.Tokens()
	require.True(t, active)

	require.NoError(t, client.Sessions.Revoke(context.Background()))
	_, active = client.State().Sessions.Tokens()
	require.False(t, active)
	require.Nil(t, client.State().Users.Current())
}

func TestTOTPEnrollAndAuthenticate(t *testing.T) {
	t.Parallel()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "stytch-test", AccountName: "a@b.com"})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/v1/totps", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(DataContainer[TOTPCreateResponseData]{Data: TOTPCreateResponseData{
			TOTPID:        "totp-1",
			Secret:        key.Secret(),
			RecoveryCodes: []string{"recovery-1"},
		}})
	})
	mux.HandleFunc("/sdk/v1/totps/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var params TOTPAuthenticateParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))

		// The server accepts only a currently valid code for the secret it
		// issued at enrollment.
		if !totp.Validate(params.TOTPCode, key.Secret()) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_code": 401, "error_type": "invalid_code", "error_message": "Invalid TOTP code."}`))
			return
		}
		_, _ = w.Write([]byte(consumerAuthEnvelope))
	})

	client := newTestConsumerClient(t, mux)

	created, err := client.TOTPs.Create(context.Background(), TOTPCreateParams{})
	require.NoError(t, err)
	require.Equal(t, key.Secret(), created.Secret)

	code, err := totp.GenerateCode(created.Secret, time.Now())
	require.NoError(t, err)

	data, err := client.TOTPs.Authenticate(context.Background(), TOTPAuthenticateParams{TOTPCode: code})
	require.NoError(t, err)
	require.Equal(t, "user-1", data.User.UserID)

	_, active := client.State().Sessions.Tokens()
	require.True(t, active)
}

// countingCollectorHost resolves every collection with a distinct id.
type countingCollectorHost struct {
	launches atomic.Int64
}

func (h *countingCollectorHost) Launch(_ context.Context, req dfp.CollectorRequest) error {
	n := h.launches.Add(1)
	go req.Respond(fmt.Sprintf("real-telemetry-%d", n))
	return nil
}

type staticChallengeClient struct {
	token string
}

func (c staticChallengeClient) Execute(context.Context) (string, error) { return c.token, nil }

func TestDecisioningRetryThroughFacade(t *testing.T) {
	t.Parallel()

	var bodies []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/v1/passwords/authenticate", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		fields := make(map[string]any)
		require.NoError(t, json.Unmarshal(raw, &fields))
		bodies = append(bodies, fields)

		if len(bodies) == 1 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"status_code": 403, "error_type": "device_not_trusted", "error_message": "Denied."}`))
			return
		}
		_, _ = w.Write([]byte(consumerAuthEnvelope))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	host := &countingCollectorHost{}
	client := NewConsumerClient(
		WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}),
		WithCollectorHost(host),
		WithCaptchaFactory(func(siteKey string) (captcha.ChallengeClient, error) {
			require.Equal(t, "captcha-site-key", siteKey)
			return staticChallengeClient{token: "captcha-token-1"}, nil
		}),
	)
	require.NoError(t, client.Configure(Configuration{
		PublicToken:    "public-token-test-abc123",
		CaptchaSiteKey: "captcha-site-key",
		DFPEnabled:     true,
		DFPAuthMode:    DFPModeDecisioning,
	}))

	data, err := client.Passwords.Authenticate(context.Background(), PasswordParams{Email: "a@b.com", Password: "hunter2"})
	require.NoError(t, err)
	require.Equal(t, "user-1", data.User.UserID)

	require.Len(t, bodies, 2)
	require.Equal(t, "real-telemetry-1", bodies[0]["dfp_telemetry_id"])
	require.NotContains(t, bodies[0], "captcha_token")

	require.Equal(t, "real-telemetry-2", bodies[1]["dfp_telemetry_id"])
	require.Equal(t, "captcha-token-1", bodies[1]["captcha_token"])
	require.Equal(t, "a@b.com", bodies[1]["email"])
	require.EqualValues(t, 2, host.launches.Load())
}

func TestB2BDiscoveryFlow(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/sdk/v1/b2b/magic_links/authenticate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"member": {"member_id": "member-1", "organization_id": "org-1"},
				"organization": {"organization_id": "org-1", "organization_name": "Acme"},
				"intermediate_session_token": "ist-1"
			}
		}`))
	})
	mux.HandleFunc("/sdk/v1/b2b/discovery/organizations", func(w http.ResponseWriter, r *http.Request) {
		var params map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "ist-1", params["intermediate_session_token"])

		_, _ = w.Write([]byte(`{
			"data": {
				"email_address": "a@b.com",
				"discovered_organizations": [
					{"organization": {"organization_id": "org-1", "organization_name": "Acme"}, "membership_type": "active_member"}
				]
			}
		}`))
	})
	mux.HandleFunc("/sdk/v1/b2b/discovery/intermediate_sessions/exchange", func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "ist-1", params["intermediate_session_token"])
		require.Equal(t, "org-1", params["organization_id"])

		_, _ = w.Write([]byte(`{
			"data": {
				"member_session": {"member_session_id": "ms-1", "member_id": "member-1", "organization_id": "org-1"},
				"member": {"member_id": "member-1", "organization_id": "org-1"},
				"organization": {"organization_id": "org-1", "organization_name": "Acme"},
				"session_token": "opaque-b2b-1",
				"session_jwt": "jwt-b2b-1"
			}
		}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	client := NewB2BClient(WithHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}))
	require.NoError(t, client.Configure(Configuration{PublicToken: "public-token-test-abc123"}))

	pending, err := client.MagicLinks.Authenticate(context.Background(), B2BMagicLinksAuthenticateParams{Token: "b2b-token"})
	require.NoError(t, err)
	require.Nil(t, pending.MemberSession)
	require.Equal(t, "ist-1", client.State().Sessions.IntermediateSessionToken())

	orgs, err := client.Discovery.Organizations(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs.DiscoveredOrganizations, 1)

	full, err := client.Discovery.ExchangeIntermediateSession(context.Background(), DiscoveryExchangeParams{OrganizationID: "org-1"})
	require.NoError(t, err)
	require.NotNil(t, full.MemberSession)

	tokens, active := client.State().Sessions.Tokens()
	require.True(t, active)
	require.Equal(t, "opaque-b2b-1", tokens.Opaque)
	require.Equal(t, SessionTypeMember, client.State().Sessions.Type())
	require.Empty(t, client.State().Sessions.IntermediateSessionToken())
}

func TestParseDeeplink(t *testing.T) {
	t.Parallel()

	t.Run("token with explicit type", func(t *testing.T) {
		u, err := url.Parse("https://app.example.com/authenticate?stytch_token_type=reset_password&token=tok-1")
		require.NoError(t, err)

		tokenType, token, err := ParseDeeplink(u)
		require.NoError(t, err)
		require.Equal(t, DeeplinkTokenTypePasswords, tokenType)
		require.Equal(t, "tok-1", token)
	})

	t.Run("missing type defaults to magic links", func(t *testing.T) {
		u, err := url.Parse("https://app.example.com/authenticate?token=tok-1")
		require.NoError(t, err)

		tokenType, _, err := ParseDeeplink(u)
		require.NoError(t, err)
		require.Equal(t, DeeplinkTokenTypeMagicLinks, tokenType)
	})

	t.Run("missing token fails typed", func(t *testing.T) {
		u, err := url.Parse("https://app.example.com/authenticate")
		require.NoError(t, err)

		_, _, err = ParseDeeplink(u)
		require.ErrorIs(t, err, ErrMissingDeeplinkToken)
	})
}
