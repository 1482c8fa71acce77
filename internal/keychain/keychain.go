// Package keychain is the SDK's local secure-item store. It plays the role
// the platform keychain plays on mobile targets: session tokens and biometric
// private-key registrations live here, keyed by well-known item names.
package keychain

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Item names a slot in the keychain.
type Item string

const (
	// ItemPrivateKeyRegistration holds the biometric private-key
	// registration minted during biometric enrollment. The router clears it
	// when the server no longer lists the registration.
	ItemPrivateKeyRegistration Item = "private_key_registration"

	// ItemSessionToken holds the opaque session token.
	ItemSessionToken Item = "session_token"

	// ItemSessionJWT holds the session JWT.
	ItemSessionJWT Item = "session_jwt"

	// ItemIntermediateSessionToken holds the partial-authentication token
	// issued while MFA or discovery steps are still pending.
	ItemIntermediateSessionToken Item = "intermediate_session_token"
)

// QueryResult is one stored value for an item.
type QueryResult struct {
	// Account distinguishes values within an item, e.g. the biometric
	// registration id.
	Account string

	// Data is the stored secret.
	Data []byte

	// CreatedAt records when the value was stored.
	CreatedAt time.Time
}

// ErrItemNotFound reports a Get against an item with no stored values.
var ErrItemNotFound = errors.New("keychain: item not found")

// Client is the keychain surface the SDK depends on.
type Client interface {
	// Get returns all stored values for item, or ErrItemNotFound.
	Get(ctx context.Context, item Item) ([]QueryResult, error)

	// Set stores data under item/account, replacing any previous value for
	// that pair.
	Set(ctx context.Context, item Item, account string, data []byte) error

	// RemoveItem deletes every value stored under item. Removing an absent
	// item is not an error.
	RemoveItem(ctx context.Context, item Item) error
}

// MemoryClient is an in-process Client. It is the default when the host app
// does not wire a persistent store, and the workhorse of the test suite.
type MemoryClient struct {
	mu    sync.Mutex
	items map[Item]map[string]QueryResult
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{items: make(map[Item]map[string]QueryResult)}
}

func (c *MemoryClient) Get(_ context.Context, item Item) ([]QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, ok := c.items[item]
	if !ok || len(values) == 0 {
		return nil, ErrItemNotFound
	}

	results := make([]QueryResult, 0, len(values))
	for _, v := range values {
		results = append(results, v)
	}
	return results, nil
}

func (c *MemoryClient) Set(_ context.Context, item Item, account string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items[item] == nil {
		c.items[item] = make(map[string]QueryResult)
	}
	c.items[item][account] = QueryResult{
		Account:   account,
		Data:      append([]byte(nil), data...),
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (c *MemoryClient) RemoveItem(_ context.Context, item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, item)
	return nil
}
