package cache

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	signature       TEXT PRIMARY KEY,
	code            BLOB NOT NULL,
	changes         BLOB,
	engine_version  TEXT NOT NULL,
	ruleset_version TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	hit_count       INTEGER NOT NULL DEFAULT 0
);
`

// SQLite is the persistent store: one database file shared between runs,
// WAL journal, single writer per statement. Hit/miss counters are per
// process, entry counts come from the database itself.
type SQLite struct {
	pool *sqlitex.Pool
	log  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func NewSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		Flags: sqlite.OpenReadWrite | sqlite.OpenCreate | sqlite.OpenWAL,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open cache database %s: %w", path, err)
	}

	s := &SQLite{pool: pool, log: log.Named("cache")}
	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer pool.Put(conn)
	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to prepare cache schema: %w", err)
	}

	s.log.Debug("Cache database ready", zap.String("path", path))
	return s, nil
}

func (s *SQLite) Get(ctx context.Context, signature string) (*Entry, bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, false, err
	}
	defer s.pool.Put(conn)

	var entry *Entry
	err = sqlitex.Execute(conn,
		`SELECT code, changes, engine_version, ruleset_version, created_at, hit_count FROM entries WHERE signature = ?`,
		&sqlitex.ExecOptions{
			Args: []any{signature},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				code, err := io.ReadAll(stmt.ColumnReader(0))
				if err != nil {
					return err
				}
				changes, err := io.ReadAll(stmt.ColumnReader(1))
				if err != nil {
					return err
				}
				if len(changes) == 0 {
					changes = nil
				}
				entry = &Entry{
					Signature:      signature,
					Code:           string(code),
					Changes:        changes,
					EngineVersion:  stmt.ColumnText(2),
					RulesetVersion: stmt.ColumnText(3),
					CreatedAt:      time.Unix(stmt.ColumnInt64(4), 0),
					HitCount:       stmt.ColumnInt64(5) + 1,
				}
				return nil
			},
		})
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}
	if entry == nil {
		s.misses.Add(1)
		return nil, false, nil
	}

	err = sqlitex.Execute(conn,
		`UPDATE entries SET hit_count = hit_count + 1 WHERE signature = ?`,
		&sqlitex.ExecOptions{Args: []any{signature}})
	if err != nil {
		return nil, false, fmt.Errorf("cache hit count update failed: %w", err)
	}

	s.hits.Add(1)
	return entry, true, nil
}

// Put inserts the entry unless the signature already exists.
func (s *SQLite) Put(ctx context.Context, entry *Entry) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	created := entry.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	err = sqlitex.Execute(conn,
		`INSERT INTO entries (signature, code, changes, engine_version, ruleset_version, created_at, hit_count)
		 VALUES (?, ?, ?, ?, ?, ?, 0) ON CONFLICT (signature) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{
				entry.Signature, []byte(entry.Code), []byte(entry.Changes),
				entry.EngineVersion, entry.RulesetVersion, created.Unix(),
			},
		})
	if err != nil {
		return fmt.Errorf("cache store failed: %w", err)
	}
	return nil
}

func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer s.pool.Put(conn)

	st := Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM entries`,
		&sqlitex.ExecOptions{ResultFunc: func(stmt *sqlite.Stmt) error {
			st.Entries = stmt.ColumnInt64(0)
			return nil
		}})
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats failed: %w", err)
	}
	return st, nil
}

// Invalidate removes entries recorded by other engine or ruleset versions
// and returns the number of entries dropped.
func (s *SQLite) Invalidate(ctx context.Context, engineVersion, rulesetVersion string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM entries WHERE engine_version <> ? OR ruleset_version <> ?`,
		&sqlitex.ExecOptions{Args: []any{engineVersion, rulesetVersion}})
	if err != nil {
		return 0, fmt.Errorf("cache invalidation failed: %w", err)
	}
	n := int64(conn.Changes())
	if n > 0 {
		s.log.Debug("Invalidated stale cache entries", zap.Int64("count", n))
	}
	return n, nil
}

// Purge removes every entry and returns the number dropped.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, err
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, `DELETE FROM entries`, nil); err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	return int64(conn.Changes()), nil
}

func (s *SQLite) Close() error {
	return s.pool.Close()
}
