package modelregistry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("no model run recorded")

const schema = `
CREATE TABLE IF NOT EXISTS model_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version TEXT NOT NULL,
	documents INTEGER NOT NULL,
	domains TEXT NOT NULL,
	domain_accuracy REAL,
	quality_accuracy REAL,
	model_dir TEXT NOT NULL,
	trained_at TEXT NOT NULL
)`

// Run is one training run of the CV analyzer.
type Run struct {
	ID              int64          `json:"id"`
	Version         string         `json:"version"`
	Documents       int            `json:"documents"`
	Domains         map[string]int `json:"domains"`
	DomainAccuracy  *float64       `json:"domainAccuracy,omitempty"`
	QualityAccuracy *float64       `json:"qualityAccuracy,omitempty"`
	ModelDir        string         `json:"modelDir"`
	TrainedAt       time.Time      `json:"trainedAt"`
}

// Registry stores training runs in a local sqlite database.
type Registry struct {
	DB *sql.DB
}

// Open opens (and creates when needed) the registry database at path.
func Open(ctx context.Context, path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init registry schema: %w", err)
	}
	return &Registry{DB: db}, nil
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.DB.Close()
}

// Record inserts run and returns it with its ID set. An empty version is
// derived from the training time.
func (r *Registry) Record(ctx context.Context, run Run) (Run, error) {
	if run.TrainedAt.IsZero() {
		run.TrainedAt = time.Now().UTC()
	}
	if run.Version == "" {
		run.Version = run.TrainedAt.UTC().Format("20060102T150405Z")
	}
	if run.Domains == nil {
		run.Domains = map[string]int{}
	}
	domains, err := json.Marshal(run.Domains)
	if err != nil {
		return Run{}, err
	}
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO model_runs (version, documents, domains, domain_accuracy, quality_accuracy, model_dir, trained_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Version, run.Documents, string(domains), nullFloat(run.DomainAccuracy), nullFloat(run.QualityAccuracy),
		run.ModelDir, run.TrainedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, fmt.Errorf("insert model run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// Latest returns the most recent run.
func (r *Registry) Latest(ctx context.Context) (Run, error) {
	runs, err := r.List(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// List returns up to limit runs, newest first.
func (r *Registry) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, version, documents, domains, domain_accuracy, quality_accuracy, model_dir, trained_at
		FROM model_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run       Run
			domains   string
			domainAcc sql.NullFloat64
			qualAcc   sql.NullFloat64
			trainedAt string
		)
		if err := rows.Scan(&run.ID, &run.Version, &run.Documents, &domains, &domainAcc, &qualAcc, &run.ModelDir, &trainedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(domains), &run.Domains); err != nil {
			return nil, fmt.Errorf("decode domains of run %d: %w", run.ID, err)
		}
		if domainAcc.Valid {
			run.DomainAccuracy = &domainAcc.Float64
		}
		if qualAcc.Valid {
			run.QualityAccuracy = &qualAcc.Float64
		}
		run.TrainedAt, err = time.Parse(time.RFC3339Nano, trainedAt)
		if err != nil {
			return nil, fmt.Errorf("decode trained_at of run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
