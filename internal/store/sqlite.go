package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/xkilldash9x/errsynth/api/schemas"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS phrases (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    main_word TEXT NOT NULL,
    main_lemma TEXT NOT NULL,
    preposition TEXT,
    dep_word TEXT,
    dep_lemma TEXT,
    dep_case TEXT,
    context TEXT,
    source INTEGER,
    main_part_of_speech TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_phrases_preposition ON phrases (preposition);
`

// SQLiteStore keeps the phrases table in a local SQLite file. It serves the
// frequency table for offline runs; the per-lemma statistics live on Store.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.Logger
}

// OpenSQLite opens (or creates) the database at path. ":memory:" opens a
// shared in-memory database limited to a single connection.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db, log: logger.Named("store.sqlite")}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the phrases table if missing.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveUsages inserts usages in a single transaction.
func (s *SQLiteStore) SaveUsages(ctx context.Context, usages []schemas.PrepositionUsage) (int64, error) {
	if len(usages) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO phrases (main_word, main_lemma, preposition, dep_word, dep_lemma, dep_case, context, source, main_part_of_speech)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, u := range usages {
		if _, err := stmt.ExecContext(ctx,
			u.MainWord, u.MainLemma, u.Preposition, u.DepWord, u.DepLemma,
			u.DepCase, u.Context, u.Source, u.MainPartOfSpeech,
		); err != nil {
			return 0, fmt.Errorf("insert phrase %q: %w", u.MainWord, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("Saved preposition usages", zap.Int64("count", inserted))
	return inserted, nil
}

// PrepositionFrequencies mirrors Store.PrepositionFrequencies.
func (s *SQLiteStore) PrepositionFrequencies(ctx context.Context) ([]schemas.PrepositionFrequency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT preposition, COUNT(*) AS count,
			COUNT(*) * 100.0 / (SELECT COUNT(*) FROM phrases) AS percentage
		FROM phrases
		WHERE preposition IS NOT NULL
		GROUP BY preposition
		ORDER BY count DESC, preposition ASC`)
	if err != nil {
		return nil, fmt.Errorf("query frequencies: %w", err)
	}
	defer rows.Close()

	var out []schemas.PrepositionFrequency
	for rows.Next() {
		var f schemas.PrepositionFrequency
		if err := rows.Scan(&f.Preposition, &f.Count, &f.Percentage); err != nil {
			return nil, fmt.Errorf("scan frequency: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
