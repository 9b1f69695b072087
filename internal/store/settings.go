package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// KeyBestSession is the settings key holding the best rep count.
const KeyBestSession = "best_session"

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the raw value for key, or ErrNotFound.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

// BestSession returns the stored best rep count. A device that never
// finished a session has a best of 0.
func (r *SettingsRepository) BestSession(ctx context.Context) (int, error) {
	raw, err := r.Get(ctx, KeyBestSession)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("corrupt %s value %q", KeyBestSession, raw)
	}
	return n, nil
}

// SetBestSession writes n as the best rep count.
func (r *SettingsRepository) SetBestSession(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("best session must be >= 0, got %d", n)
	}
	return r.Set(ctx, KeyBestSession, strconv.Itoa(n))
}
