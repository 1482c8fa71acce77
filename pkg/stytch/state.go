package stytch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stytchauth/stytch-go-client/internal/keychain"
)

// SessionType distinguishes consumer sessions from B2B member sessions.
type SessionType int

const (
	SessionTypeUser SessionType = iota
	SessionTypeMember
)

// SessionTokens carries the two token forms returned by session-bearing
// responses.
type SessionTokens struct {
	// JWT is the signed session JWT.
	JWT string

	// Opaque is the opaque session token.
	Opaque string
}

// SessionStorage holds the locally cached session. The router is the single
// writer per completed call; concurrent completions race with explicit
// last-write-wins semantics by completion order, tracked by Version. No
// ordering is promised between concurrent authenticate calls.
type SessionStorage struct {
	keychain keychain.Client

	mu                       sync.Mutex
	sessionType              SessionType
	tokens                   SessionTokens
	intermediateSessionToken string
	hostURL                  *url.URL
	expiresAt                time.Time
	version                  uint64
	active                   bool
}

// NewSessionStorage creates session storage persisting tokens to kc. A nil
// keychain keeps tokens in memory only.
func NewSessionStorage(kc keychain.Client) *SessionStorage {
	return &SessionStorage{keychain: kc}
}

// UpdateSession installs a full session of the given type. The JWT's expiry
// claim is extracted best-effort so callers can check staleness locally.
func (s *SessionStorage) UpdateSession(sessionType SessionType, tokens SessionTokens, hostURL *url.URL) {
	s.mu.Lock()
	s.sessionType = sessionType
	s.tokens = tokens
	s.intermediateSessionToken = ""
	s.hostURL = hostURL
	s.expiresAt = jwtExpiry(tokens.JWT)
	s.active = true
	s.version++
	s.mu.Unlock()

	s.persist(tokens)
}

// UpdateIntermediateSessionToken stores a partial-authentication token. No
// full session exists yet; everything from the previous session is cleared.
func (s *SessionStorage) UpdateIntermediateSessionToken(token string) {
	s.mu.Lock()
	s.sessionType = SessionTypeUser
	s.tokens = SessionTokens{}
	s.intermediateSessionToken = token
	s.hostURL = nil
	s.expiresAt = time.Time{}
	s.active = false
	s.version++
	s.mu.Unlock()

	if s.keychain != nil {
		ctx := context.Background()
		_ = s.keychain.RemoveItem(ctx, keychain.ItemSessionToken)
		_ = s.keychain.RemoveItem(ctx, keychain.ItemSessionJWT)
		_ = s.keychain.Set(ctx, keychain.ItemIntermediateSessionToken, "", []byte(token))
	}
}

// Reset clears all session state, local and persisted.
func (s *SessionStorage) Reset() {
	s.mu.Lock()
	s.sessionType = SessionTypeUser
	s.tokens = SessionTokens{}
	s.intermediateSessionToken = ""
	s.hostURL = nil
	s.expiresAt = time.Time{}
	s.active = false
	s.version++
	s.mu.Unlock()

	if s.keychain != nil {
		ctx := context.Background()
		_ = s.keychain.RemoveItem(ctx, keychain.ItemSessionToken)
		_ = s.keychain.RemoveItem(ctx, keychain.ItemSessionJWT)
		_ = s.keychain.RemoveItem(ctx, keychain.ItemIntermediateSessionToken)
	}
}

// Tokens returns the current session tokens and whether a full session is
// active.
func (s *SessionStorage) Tokens() (SessionTokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, s.active
}

// IntermediateSessionToken returns the stored partial-authentication token,
// if any.
func (s *SessionStorage) IntermediateSessionToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intermediateSessionToken
}

// Type returns the current session type. Only meaningful while a full
// session is active.
func (s *SessionStorage) Type() SessionType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionType
}

// ExpiresAt returns the session JWT's expiry, or the zero time when no
// session is active or the JWT carried no expiry claim.
func (s *SessionStorage) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Version returns the write counter. Each update or reset bumps it; the
// highest version is simply the latest completion.
func (s *SessionStorage) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *SessionStorage) persist(tokens SessionTokens) {
	if s.keychain == nil {
		return
	}
	ctx := context.Background()
	_ = s.keychain.Set(ctx, keychain.ItemSessionToken, "", []byte(tokens.Opaque))
	_ = s.keychain.Set(ctx, keychain.ItemSessionJWT, "", []byte(tokens.JWT))
	_ = s.keychain.RemoveItem(ctx, keychain.ItemIntermediateSessionToken)
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// server remains the authority on validity; the local expiry only drives
// staleness hints. Parse failures yield the zero time.
func jwtExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// ============================================================================
// Entity caches
// ============================================================================

// UserStorage caches the most recently returned consumer user.
type UserStorage struct {
	mu   sync.Mutex
	user *User
}

func (s *UserStorage) Update(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

func (s *UserStorage) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *UserStorage) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// MemberStorage caches the most recently returned B2B member.
type MemberStorage struct {
	mu     sync.Mutex
	member *Member
}

func (s *MemberStorage) Update(member Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.member = &member
}

func (s *MemberStorage) Current() *Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.member
}

func (s *MemberStorage) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.member = nil
}

// OrganizationStorage caches the most recently returned B2B organization.
type OrganizationStorage struct {
	mu  sync.Mutex
	org *Organization
}

func (s *OrganizationStorage) Update(org Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = &org
}

func (s *OrganizationStorage) Current() *Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.org
}

func (s *OrganizationStorage) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.org = nil
}

// State bundles the shared mutable caches a router updates after response
// decode.
type State struct {
	Sessions      *SessionStorage
	Users         *UserStorage
	Members       *MemberStorage
	Organizations *OrganizationStorage
}

// NewState creates the cache bundle, with session tokens persisted to kc.
func NewState(kc keychain.Client) *State {
	return &State{
		Sessions:      NewSessionStorage(kc),
		Users:         &UserStorage{},
		Members:       &MemberStorage{},
		Organizations: &OrganizationStorage{},
	}
}

// ResetSession clears the session and every entity cache. Invoked on any 401
// before the error propagates.
func (s *State) ResetSession() {
	s.Sessions.Reset()
	s.Users.reset()
	s.Members.reset()
	s.Organizations.reset()
}
