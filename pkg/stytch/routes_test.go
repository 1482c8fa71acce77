package stytch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathNormalization(t *testing.T) {
	t.Parallel()

	t.Run("strips leading and trailing slashes", func(t *testing.T) {
		require.Equal(t, "magic_links/authenticate", NewPath("/magic_links/authenticate/").String())
	})

	t.Run("collapses interior slash runs", func(t *testing.T) {
		require.Equal(t, "a/b/c", NewPath("a//b///c").String())
	})

	t.Run("empty and all-slash inputs are empty", func(t *testing.T) {
		require.True(t, NewPath("").IsEmpty())
		require.True(t, NewPath("///").IsEmpty())
	})
}

func TestPathAppending(t *testing.T) {
	t.Parallel()

	t.Run("joins with a single slash", func(t *testing.T) {
		joined := NewPath("b2b").AppendingPath(NewPath("sessions/authenticate"))
		require.Equal(t, "b2b/sessions/authenticate", joined.String())
	})

	t.Run("empty path is the identity on both sides", func(t *testing.T) {
		p := NewPath("totps/recover")
		require.Equal(t, p, NewPath("").AppendingPath(p))
		require.Equal(t, p, p.AppendingPath(NewPath("")))
	})

	t.Run("associative regardless of slash placement", func(t *testing.T) {
		a, b, c := NewPath("/sdk/"), NewPath("v1"), NewPath("/users/me")
		left := a.AppendingPath(b).AppendingPath(c)
		right := a.AppendingPath(b.AppendingPath(c))
		require.Equal(t, left, right)
		require.Equal(t, "sdk/v1/users/me", left.String())
	})
}

func TestRoutePaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		route RouteType
		want  string
	}{
		{MagicLinksRouteLoginOrCreate, "magic_links/email/login_or_create"},
		{MagicLinksRouteAuthenticate, "magic_links/authenticate"},
		{OTPRouteAuthenticate, "otps/authenticate"},
		{PasswordsRouteResetBySession, "passwords/session/reset"},
		{SessionsRouteRevoke, "sessions/revoke"},
		{TOTPRouteCreate, "totps"},
		{UsersRouteMe, "users/me"},
		{B2BMagicLinksRouteAuthenticate, "b2b/magic_links/authenticate"},
		{B2BDiscoveryRouteExchangeIntermediateSession, "b2b/discovery/intermediate_sessions/exchange"},
		{B2BTOTPRouteAuthenticate, "b2b/totp/authenticate"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, tc.route.Path().String())
	}
}

func TestBaseRouteDelegates(t *testing.T) {
	t.Parallel()

	route := BaseRoute{Route: SessionsRouteAuthenticate}
	require.Equal(t, "sessions/authenticate", route.Path().String())

	// Composite routes delegate recursively.
	nested := BaseRoute{Route: route}
	require.Equal(t, route.Path(), nested.Path())
}
