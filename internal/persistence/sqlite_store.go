package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const runColumns = `id, input_path, output_path, target_lang, status, entries, batches,
	succeeded, failed, cached, error, created_at, updated_at`

// SQLiteStore keeps run history and the batch checkpoint cache.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer keeps concurrent batch saves from tripping SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// dsn applies the pragmas to every connection the pool opens.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(ON)")
	return "file:" + path + "?" + q.Encode()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertRun records run, stamping CreatedAt on first write and UpdatedAt on
// every write. Input path and target language never change after insert.
func (s *SQLiteStore) UpsertRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			output_path = excluded.output_path,
			status = excluded.status,
			entries = excluded.entries,
			batches = excluded.batches,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			cached = excluded.cached,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		run.ID, run.InputPath, run.OutputPath, run.TargetLanguage, string(run.Status),
		run.Entries, run.Batches, run.Succeeded, run.Failed, run.Cached, run.Error,
		run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", run.ID, err)
	}
	return nil
}

// LoadRuns returns runs newest first. A non-positive limit returns all runs.
func (s *SQLiteStore) LoadRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastSucceededRun returns the newest succeeded run for an input and target language.
func (s *SQLiteStore) LastSucceededRun(ctx context.Context, inputPath, targetLang string) (*Run, bool, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs
		WHERE input_path = ? AND target_lang = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`,
		inputPath, targetLang, string(RunSucceeded),
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return run, true, nil
}

func scanRun(row interface{ Scan(dest ...any) error }) (*Run, error) {
	var run Run
	var status string
	err := row.Scan(
		&run.ID, &run.InputPath, &run.OutputPath, &run.TargetLanguage, &status,
		&run.Entries, &run.Batches, &run.Succeeded, &run.Failed, &run.Cached, &run.Error,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	return &run, nil
}

// SaveBatchCheckpoint stores the translated lines of one batch under key,
// replacing any earlier entry.
func (s *SQLiteStore) SaveBatchCheckpoint(ctx context.Context, key string, runID string, translatedLines []string) error {
	payload, err := json.Marshal(translatedLines)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO batch_checkpoints (cache_key, run_id, entry_count, translated_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			run_id = excluded.run_id,
			entry_count = excluded.entry_count,
			translated_json = excluded.translated_json,
			updated_at = excluded.updated_at`,
		key, runID, len(translatedLines), string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LoadBatchCheckpoint returns the cached translation for key, if any.
func (s *SQLiteStore) LoadBatchCheckpoint(ctx context.Context, key string) (BatchCheckpoint, bool, error) {
	cp := BatchCheckpoint{Key: key}
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, translated_json, updated_at FROM batch_checkpoints WHERE cache_key = ?`, key,
	).Scan(&cp.RunID, &payload, &cp.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return BatchCheckpoint{}, false, nil
	case err != nil:
		return BatchCheckpoint{}, false, err
	}
	if err := json.Unmarshal([]byte(payload), &cp.TranslatedLines); err != nil {
		return BatchCheckpoint{}, false, fmt.Errorf("decode checkpoint %s: %w", key, err)
	}
	return cp, true, nil
}

// DeleteCheckpointsBefore removes checkpoints last written before cutoff.
func (s *SQLiteStore) DeleteCheckpointsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batch_checkpoints WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}

// CheckpointStats summarises the cache. Oldest and Newest are zero when it
// is empty.
func (s *SQLiteStore) CheckpointStats(ctx context.Context) (CheckpointStats, error) {
	var stats CheckpointStats
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(entry_count), 0) FROM batch_checkpoints`,
	).Scan(&stats.Batches, &stats.Lines); err != nil {
		return CheckpointStats{}, fmt.Errorf("count checkpoints: %w", err)
	}
	if stats.Batches == 0 {
		return stats, nil
	}

	for _, q := range []struct {
		order string
		dest  *time.Time
	}{{"ASC", &stats.Oldest}, {"DESC", &stats.Newest}} {
		if err := s.db.QueryRowContext(ctx,
			`SELECT updated_at FROM batch_checkpoints ORDER BY updated_at `+q.order+` LIMIT 1`,
		).Scan(q.dest); err != nil {
			return CheckpointStats{}, fmt.Errorf("checkpoint age: %w", err)
		}
	}
	return stats, nil
}
