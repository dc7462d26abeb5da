// Package auth owns token revocation. Logged-out tokens are keyed by their
// jti claim and expire together with the token itself, so the store never
// grows beyond the set of tokens that could still be replayed.
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// RevocationStore is the auth collaborator's view of revoked tokens. The
// ledger core has no dependency on it; only the JWT middleware and the logout
// handler do.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// PurgeExpired removes entries whose token lifetime has passed and
	// returns the number removed.
	PurgeExpired(ctx context.Context) (int64, error)
}

// SQLRevocationStore persists revocations in the token_blocklist table.
type SQLRevocationStore struct {
	db *sql.DB
}

func NewSQLRevocationStore(db *sql.DB) *SQLRevocationStore {
	return &SQLRevocationStore{db: db}
}

func (s *SQLRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO token_blocklist (jti, expires_at) VALUES (?, ?) ON DUPLICATE KEY UPDATE expires_at = VALUES(expires_at)",
		jti, expiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *SQLRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM token_blocklist WHERE jti = ?)", jti).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists, nil
}

func (s *SQLRevocationStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM token_blocklist WHERE expires_at < ?",
		time.Now().UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

// MemoryRevocationStore is an in-process implementation used in tests.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	return time.Now().Before(expiresAt), nil
}

func (s *MemoryRevocationStore) PurgeExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	now := time.Now()
	for jti, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, jti)
			purged++
		}
	}
	return purged, nil
}
