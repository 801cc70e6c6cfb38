package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps attempt counters in the invite_attempts table so
// every API instance shares one budget per key.
//
//	CREATE TABLE invite_attempts (
//	    key          TEXT PRIMARY KEY,
//	    count        INT NOT NULL,
//	    window_start TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db     *pgxpool.Pool
	window time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, window time.Duration) *PostgresStore {
	return &PostgresStore{db: db, window: window}
}

func (s *PostgresStore) Increment(ctx context.Context, key string) (int, error) {
	query := `
	INSERT INTO invite_attempts (key, count, window_start)
	VALUES ($1, 1, NOW())
	ON CONFLICT (key) DO UPDATE SET
		count = CASE
			WHEN invite_attempts.window_start < NOW() - $2::interval THEN 1
			ELSE invite_attempts.count + 1
		END,
		window_start = CASE
			WHEN invite_attempts.window_start < NOW() - $2::interval THEN NOW()
			ELSE invite_attempts.window_start
		END
	RETURNING count
	`

	interval := fmt.Sprintf("%d seconds", int(s.window.Seconds()))
	var count int
	if err := s.db.QueryRow(ctx, query, key, interval).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment attempts for %s: %w", key, err)
	}
	return count, nil
}

func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM invite_attempts WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to reset attempts for %s: %w", key, err)
	}
	return nil
}
