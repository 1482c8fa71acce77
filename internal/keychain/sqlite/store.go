// Package sqlite persists keychain items in a local SQLite database with
// values encrypted at rest. It is the durable stand-in for a platform
// keychain on targets where one is not available.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stytchauth/stytch-go-client/internal/keychain"
	"github.com/stytchauth/stytch-go-client/pkg/cryptox"
)

type Store struct {
	db     *sql.DB
	secret []byte
}

// NewStore opens (or creates) the keychain database at dsn. Values are
// sealed under a key derived from the host app's device secret; losing the
// secret orphans previously stored values.
func NewStore(dsn string, deviceSecret []byte) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Serialize writers; the SDK only needs light traffic here.
	db.SetMaxOpenConns(1)

	return &Store{
		db:     db,
		secret: append([]byte(nil), deviceSecret...),
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, item keychain.Item) ([]keychain.QueryResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, data, created_at FROM keychain_items WHERE item = ? ORDER BY created_at`,
		string(item),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []keychain.QueryResult
	for rows.Next() {
		var (
			account   string
			sealed    []byte
			createdAt time.Time
		)
		if err := rows.Scan(&account, &sealed, &createdAt); err != nil {
			return nil, err
		}

		data, err := cryptox.Open(s.secret, sealed)
		if err != nil {
			return nil, err
		}

		results = append(results, keychain.QueryResult{
			Account:   account,
			Data:      data,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, keychain.ErrItemNotFound
	}
	return results, nil
}

func (s *Store) Set(ctx context.Context, item keychain.Item, account string, data []byte) error {
	sealed, err := cryptox.Seal(s.secret, data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO keychain_items (item, account, data, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (item, account) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		string(item), account, sealed, time.Now().UTC(),
	)
	return err
}

func (s *Store) RemoveItem(ctx context.Context, item keychain.Item) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM keychain_items WHERE item = ?`,
		string(item),
	)
	return err
}
