package stytch

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/stytchauth/stytch-go-client/internal/keychain"
)

func signedJWT(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionStorageUpdateSession(t *testing.T) {
	t.Parallel()

	kc := keychain.NewMemoryClient()
	storage := NewSessionStorage(kc)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	storage.UpdateSession(SessionTypeUser, SessionTokens{
		JWT:    signedJWT(t, expiry),
		Opaque: "opaque-1",
	}, nil)

	tokens, active := storage.Tokens()
	require.True(t, active)
	require.Equal(t, "opaque-1", tokens.Opaque)
	require.Equal(t, SessionTypeUser, storage.Type())

	// Expiry comes from the JWT's exp claim, read without verification.
	require.WithinDuration(t, expiry, storage.ExpiresAt(), time.Second)

	results, err := kc.Get(context.Background(), keychain.ItemSessionToken)
	require.NoError(t, err)
	require.Equal(t, []byte("opaque-1"), results[0].Data)
}

func TestSessionStorageMalformedJWT(t *testing.T) {
	t.Parallel()

	storage := NewSessionStorage(nil)
	storage.UpdateSession(SessionTypeUser, SessionTokens{JWT: "not-a-jwt", Opaque: "opaque-1"}, nil)

	// A bad JWT never blocks the session; only the expiry hint is lost.
	_, active := storage.Tokens()
	require.True(t, active)
	require.True(t, storage.ExpiresAt().IsZero())
}

func TestSessionStorageIntermediateToken(t *testing.T) {
	t.Parallel()

	kc := keychain.NewMemoryClient()
	storage := NewSessionStorage(kc)

	storage.UpdateSession(SessionTypeMember, SessionTokens{JWT: "x", Opaque: "opaque-1"}, nil)
	storage.UpdateIntermediateSessionToken("ist-1")

	// The partial token replaces the full session entirely, including the
	// previous session's type.
	_, active := storage.Tokens()
	require.False(t, active)
	require.Equal(t, "ist-1", storage.IntermediateSessionToken())
	require.Equal(t, SessionTypeUser, storage.Type())

	_, err := kc.Get(context.Background(), keychain.ItemSessionToken)
	require.ErrorIs(t, err, keychain.ErrItemNotFound)
	results, err := kc.Get(context.Background(), keychain.ItemIntermediateSessionToken)
	require.NoError(t, err)
	require.Equal(t, []byte("ist-1"), results[0].Data)

	// And a full session clears the partial token back.
	storage.UpdateSession(SessionTypeMember, SessionTokens{JWT: "x", Opaque: "opaque-2"}, nil)
	require.Empty(t, storage.IntermediateSessionToken())
	_, err = kc.Get(context.Background(), keychain.ItemIntermediateSessionToken)
	require.ErrorIs(t, err, keychain.ErrItemNotFound)
}

func TestSessionStorageVersionOrdersWrites(t *testing.T) {
	t.Parallel()

	storage := NewSessionStorage(nil)
	require.Zero(t, storage.Version())

	storage.UpdateSession(SessionTypeUser, SessionTokens{Opaque: "a"}, nil)
	storage.UpdateSession(SessionTypeUser, SessionTokens{Opaque: "b"}, nil)
	storage.Reset()
	require.EqualValues(t, 3, storage.Version())

	// Last write wins: whatever completed last is what reads observe.
	tokens, active := storage.Tokens()
	require.False(t, active)
	require.Empty(t, tokens.Opaque)
}

func TestStateResetSession(t *testing.T) {
	t.Parallel()

	kc := keychain.NewMemoryClient()
	state := NewState(kc)

	state.Sessions.UpdateSession(SessionTypeUser, SessionTokens{Opaque: "opaque-1"}, nil)
	state.Users.Update(User{UserID: "user-1"})
	state.Members.Update(Member{MemberID: "member-1"})
	state.Organizations.Update(Organization{OrganizationID: "org-1"})

	state.ResetSession()

	_, active := state.Sessions.Tokens()
	require.False(t, active)
	require.Nil(t, state.Users.Current())
	require.Nil(t, state.Members.Current())
	require.Nil(t, state.Organizations.Current())
}
