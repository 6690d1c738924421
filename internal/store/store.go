package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// rareFactor: a preposition is rare for a key when its share for that key,
// multiplied by rareFactor, is still below its overall share.
const rareFactor = 3

// PostgresSchema creates the phrases table.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS phrases (
    id SERIAL PRIMARY KEY,
    main_word VARCHAR(30) NOT NULL,
    main_lemma VARCHAR(30) NOT NULL,
    preposition VARCHAR(12),
    dep_word VARCHAR(30),
    dep_lemma VARCHAR(30),
    dep_case VARCHAR(3),
    context TEXT,
    source INTEGER,
    main_part_of_speech VARCHAR(20) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_phrases_preposition ON phrases (preposition);
CREATE INDEX IF NOT EXISTS idx_phrases_lemmas ON phrases (main_lemma, dep_lemma);
`

// phraseColumns are the writable columns in COPY order.
var phraseColumns = []string{
	"main_word", "main_lemma", "preposition", "dep_word", "dep_lemma",
	"dep_case", "context", "source", "main_part_of_speech",
}

// Store provides a PostgreSQL implementation of schemas.UsageStore.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the phrases table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// -- Writes --

// SaveUsages bulk-loads usages with COPY and returns the number of rows written.
func (s *Store) SaveUsages(ctx context.Context, usages []schemas.PrepositionUsage) (int64, error) {
	if len(usages) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(usages))
	for i, u := range usages {
		rows[i] = []interface{}{
			u.MainWord, u.MainLemma, u.Preposition, u.DepWord, u.DepLemma,
			u.DepCase, u.Context, u.Source, u.MainPartOfSpeech,
		}
	}

	copyCount, err := s.pool.CopyFrom(ctx, pgx.Identifier{"phrases"}, phraseColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy phrases: %w", err)
	}
	if int(copyCount) != len(usages) {
		return copyCount, fmt.Errorf("mismatch in copied phrases count: expected %d, got %d", len(usages), copyCount)
	}
	s.log.Debug("Saved preposition usages", zap.Int64("count", copyCount))
	return copyCount, nil
}

// -- Frequencies --

const sqlPrepositionFrequencies = `
SELECT preposition, COUNT(*) AS count,
    (COUNT(*) * 100.0 / NULLIF((SELECT COUNT(*) FROM phrases), 0))::float8 AS percentage
FROM phrases
WHERE preposition IS NOT NULL
GROUP BY preposition
ORDER BY count DESC, preposition ASC;
`

// PrepositionFrequencies returns every preposition with its row count and its
// percentage of all rows, most frequent first.
func (s *Store) PrepositionFrequencies(ctx context.Context) ([]schemas.PrepositionFrequency, error) {
	rows, err := s.pool.Query(ctx, sqlPrepositionFrequencies)
	if err != nil {
		return nil, fmt.Errorf("failed to query preposition frequencies: %w", err)
	}
	defer rows.Close()

	var out []schemas.PrepositionFrequency
	for rows.Next() {
		var f schemas.PrepositionFrequency
		if err := rows.Scan(&f.Preposition, &f.Count, &f.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan frequency row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// -- Percentages --

const (
	sqlPrepPercentage = `
SELECT (COUNT(*) FILTER (WHERE preposition = $1) * 100.0 / NULLIF(COUNT(*), 0))::float8
FROM phrases;`

	sqlPrepPercentageForDepLemma = `
SELECT (COUNT(*) FILTER (WHERE preposition = $1) * 100.0 / NULLIF(COUNT(*), 0))::float8
FROM phrases
WHERE dep_lemma = $2;`

	sqlPrepPercentageForMainLemma = `
SELECT (COUNT(*) FILTER (WHERE preposition = $1) * 100.0 / NULLIF(COUNT(*), 0))::float8
FROM phrases
WHERE main_lemma = $2;`

	sqlPrepPercentageForCase = `
SELECT (COUNT(*) FILTER (WHERE preposition = $1) * 100.0 / NULLIF(COUNT(*), 0))::float8
FROM phrases
WHERE dep_case = $2;`

	sqlCasePercentageForPrep = `
SELECT (COUNT(*) FILTER (WHERE dep_case = $1) * 100.0 / NULLIF(COUNT(*), 0))::float8
FROM phrases
WHERE preposition = $2;`
)

// percentage runs a single-value percentage query. An empty population yields 0.
func (s *Store) percentage(ctx context.Context, query string, args ...interface{}) (float64, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query percentage: %w", err)
	}
	defer rows.Close()

	var pct pgtype.Float8
	if rows.Next() {
		if err := rows.Scan(&pct); err != nil {
			return 0, fmt.Errorf("failed to scan percentage: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error during row iteration: %w", err)
	}
	if !pct.Valid {
		return 0, nil
	}
	return pct.Float64, nil
}

// PrepPercentage is the share (0..100) of all phrases that use prep.
func (s *Store) PrepPercentage(ctx context.Context, prep string) (float64, error) {
	return s.percentage(ctx, sqlPrepPercentage, prep)
}

func (s *Store) PrepPercentageForDepLemma(ctx context.Context, prep, depLemma string) (float64, error) {
	return s.percentage(ctx, sqlPrepPercentageForDepLemma, prep, depLemma)
}

func (s *Store) PrepPercentageForMainLemma(ctx context.Context, prep, mainLemma string) (float64, error) {
	return s.percentage(ctx, sqlPrepPercentageForMainLemma, prep, mainLemma)
}

func (s *Store) PrepPercentageForCase(ctx context.Context, prep, depCase string) (float64, error) {
	return s.percentage(ctx, sqlPrepPercentageForCase, prep, depCase)
}

// CasePercentageForPrep is the share of phrases using prep whose dependent is in depCase.
func (s *Store) CasePercentageForPrep(ctx context.Context, prep, depCase string) (float64, error) {
	return s.percentage(ctx, sqlCasePercentageForPrep, depCase, prep)
}

func (s *Store) isRare(ctx context.Context, prep string, forKey func() (float64, error)) (bool, error) {
	overall, err := s.PrepPercentage(ctx, prep)
	if err != nil {
		return false, err
	}
	keyed, err := forKey()
	if err != nil {
		return false, err
	}
	return keyed*rareFactor < overall, nil
}

func (s *Store) IsPrepNotCommonForDepLemma(ctx context.Context, prep, depLemma string) (bool, error) {
	return s.isRare(ctx, prep, func() (float64, error) { return s.PrepPercentageForDepLemma(ctx, prep, depLemma) })
}

func (s *Store) IsPrepNotCommonForMainLemma(ctx context.Context, prep, mainLemma string) (bool, error) {
	return s.isRare(ctx, prep, func() (float64, error) { return s.PrepPercentageForMainLemma(ctx, prep, mainLemma) })
}

func (s *Store) IsPrepNotCommonForCase(ctx context.Context, prep, depCase string) (bool, error) {
	return s.isRare(ctx, prep, func() (float64, error) { return s.PrepPercentageForCase(ctx, prep, depCase) })
}

// -- Lookups --

const sqlSameByWordsAndPrep = `
SELECT id, main_word, main_lemma, preposition, dep_word, dep_lemma, dep_case, context, source, main_part_of_speech
FROM phrases
WHERE main_lemma = $1 AND dep_lemma = $2 AND preposition = $3
ORDER BY id ASC;
`

// SameByWordsAndPrep returns the recorded usages of a governor/dependent pair with prep.
func (s *Store) SameByWordsAndPrep(ctx context.Context, mainLemma, depLemma, prep string) ([]schemas.PrepositionUsage, error) {
	rows, err := s.pool.Query(ctx, sqlSameByWordsAndPrep, mainLemma, depLemma, prep)
	if err != nil {
		return nil, fmt.Errorf("failed to query phrases: %w", err)
	}
	defer rows.Close()

	var out []schemas.PrepositionUsage
	for rows.Next() {
		var u schemas.PrepositionUsage
		if err := rows.Scan(
			&u.ID, &u.MainWord, &u.MainLemma, &u.Preposition, &u.DepWord,
			&u.DepLemma, &u.DepCase, &u.Context, &u.Source, &u.MainPartOfSpeech,
		); err != nil {
			return nil, fmt.Errorf("failed to scan phrase row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}
