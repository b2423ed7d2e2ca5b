// Package history keeps completed dataset evaluations in a local sqlite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
)

const (
	driverName  = "sqlite"
	tableName   = "evaluations"
	defaultList = 20
)

const schema = `CREATE TABLE IF NOT EXISTS evaluations (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	source       TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	total_rows   INTEGER NOT NULL,
	summary_json TEXT NOT NULL,
	results_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS evaluations_completed_at ON evaluations (completed_at);`

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("evaluation not found")

// Record is one saved evaluation.
type Record struct {
	ID          string                       `json:"id"`
	JobID       string                       `json:"job_id"`
	Source      string                       `json:"source"`
	CompletedAt time.Time                    `json:"completed_at"`
	TotalRows   int                          `json:"total_rows"`
	Stats       aggregate.Stats              `json:"stats"`
	Results     api.DatasetEvaluationResults `json:"results"`
}

// Store is a sqlite-backed evaluation history.
type Store struct {
	pool   *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating when needed) the history database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	pool, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1)

	s := &Store{pool: pool, logger: logger, now: time.Now}
	if err := s.Ping(time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.ExecContext(context.Background(), schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create %s schema: %w", tableName, err)
	}
	logger.Debug("Opened history store", "path", path)
	return s, nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.pool.PingContext(ctx)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Save stores a completed evaluation and returns its record.
func (s *Store) Save(ctx context.Context, source string, res api.DatasetEvaluationResults) (Record, error) {
	rec := Record{
		ID:          uuid.New().String(),
		JobID:       res.JobID,
		Source:      source,
		CompletedAt: completedAt(res.CompletedAt, s.now()),
		TotalRows:   len(res.Results),
		Stats:       aggregate.FromResults(res),
		Results:     res,
	}
	summaryJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return Record{}, err
	}
	resultsJSON, err := json.Marshal(res)
	if err != nil {
		return Record{}, err
	}
	_, err = s.pool.ExecContext(ctx,
		`INSERT INTO evaluations (id, job_id, source, completed_at, total_rows, summary_json, results_json) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.JobID, rec.Source, rec.CompletedAt.Format(time.RFC3339Nano), rec.TotalRows, string(summaryJSON), string(resultsJSON))
	if err != nil {
		return Record{}, fmt.Errorf("save evaluation: %w", err)
	}
	s.logger.Info("Saved evaluation", "id", rec.ID, "job_id", rec.JobID, "rows", rec.TotalRows)
	return rec, nil
}

// List returns up to limit records, newest first. Results are not loaded.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultList
	}
	rows, err := s.pool.QueryContext(ctx,
		`SELECT id, job_id, source, completed_at, total_rows, summary_json FROM evaluations ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			completed string
			summary   string
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Source, &completed, &rec.TotalRows, &summary); err != nil {
			return nil, err
		}
		rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
		if err := json.Unmarshal([]byte(summary), &rec.Stats); err != nil {
			return nil, fmt.Errorf("decode summary for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get loads one record with its full results.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var (
		rec       Record
		completed string
		summary   string
		results   string
	)
	err := s.pool.QueryRowContext(ctx,
		`SELECT id, job_id, source, completed_at, total_rows, summary_json, results_json FROM evaluations WHERE id = ?`, id).
		Scan(&rec.ID, &rec.JobID, &rec.Source, &completed, &rec.TotalRows, &summary, &results)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	rec.CompletedAt, _ = time.Parse(time.RFC3339Nano, completed)
	if err := json.Unmarshal([]byte(summary), &rec.Stats); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(results), &rec.Results); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func completedAt(raw string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	return fallback.UTC()
}
