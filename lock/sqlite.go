package lock

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	DefaultLeaseTTL = 30 * time.Second

	defaultSQLitePollInterval = 100 * time.Millisecond

	sqliteSchema = `CREATE TABLE IF NOT EXISTS mutex (
	name       TEXT PRIMARY KEY,
	holder     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
)`

	// the update only applies when the current lease has expired, so the
	// upsert changes a row exactly when the lock was free
	sqliteAcquire = `INSERT INTO mutex (name, holder, expires_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
WHERE mutex.expires_at <= ?`

	sqliteRelease = `DELETE FROM mutex WHERE name = ? AND holder = ?`
)

// SQLite is a mutex stored as a lease row in a SQLite database. Leases expire
// after TTL so a crashed holder cannot keep the lock forever.
// Leases are not renewed: a holder that outlives TTL loses exclusivity and
// sees ErrLeaseLost on release.
type SQLite struct {
	db           *sql.DB
	name         string
	ttl          time.Duration
	PollInterval time.Duration

	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and returns the
// mutex called name within it.
func OpenSQLite(path, name string, ttl time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}

	dsn := path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create mutex table: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}

	return &SQLite{
		db:           db,
		name:         name,
		ttl:          ttl,
		PollInterval: defaultSQLitePollInterval,
		now:          time.Now,
	}, nil
}

func (s *SQLite) Acquire(ctx context.Context) (Release, error) {
	holder := uuid.NewString()

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultSQLitePollInterval
	}

	err := poll(ctx, interval, func() (bool, error) {
		now := s.now()
		res, err := s.db.ExecContext(ctx, sqliteAcquire, s.name, holder, now.Add(s.ttl).UnixMilli(), now.UnixMilli())
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return n == 1, nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		res, err := s.db.Exec(sqliteRelease, s.name, holder)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLeaseLost
		}
		return nil
	}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
