// Package export writes a computed aggregate snapshot to a SQLite file.
// The file is a one-way export for downstream analysis; nothing in the
// service ever reads it back.
package export

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/damianti/micro-organisms/internal/pipeline"
	_ "modernc.org/sqlite"
)

// Store handles writing aggregates to a SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens an export database at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DBPath returns the path to the database file.
func (s *Store) DBPath() string {
	return s.dbPath
}

// Clear removes all data from the database for a fresh export.
func (s *Store) Clear() error {
	tables := []string{"taxon_stats", "environments", "metadata"}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing table %s: %w", table, err)
		}
	}
	return nil
}

// WriteSnapshot writes the whole aggregate snapshot in one transaction.
// NaN standard deviations (single-sample groups) are stored as NULL.
func (s *Store) WriteSnapshot(snap *pipeline.Snapshot) error {
	if snap == nil || snap.Aggregates == nil {
		return pipeline.ErrNotReady
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	envStmt, err := tx.Prepare(`
		INSERT INTO environments (name, sample_count)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET sample_count = excluded.sample_count
	`)
	if err != nil {
		return fmt.Errorf("preparing environments insert: %w", err)
	}
	defer envStmt.Close()

	statStmt, err := tx.Prepare(`
		INSERT INTO taxon_stats (environment, taxon, mean, stddev, n)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(environment, taxon) DO UPDATE SET
			mean = excluded.mean,
			stddev = excluded.stddev,
			n = excluded.n
	`)
	if err != nil {
		return fmt.Errorf("preparing taxon_stats insert: %w", err)
	}
	defer statStmt.Close()

	for _, agg := range snap.Aggregates.Environments {
		if _, err := envStmt.Exec(agg.Name, agg.SampleCount); err != nil {
			return fmt.Errorf("inserting environment %s: %w", agg.Name, err)
		}
		for _, taxon := range snap.Aggregates.TaxonColumns {
			stats := agg.Stats[taxon]
			stddev := sql.NullFloat64{Float64: stats.StdDev, Valid: !math.IsNaN(stats.StdDev)}
			if _, err := statStmt.Exec(agg.Name, taxon, stats.Mean, stddev, agg.SampleCount); err != nil {
				return fmt.Errorf("inserting stats for %s/%s: %w", agg.Name, taxon, err)
			}
		}
	}

	meta := map[string]string{
		"exported_at": time.Now().Format(time.RFC3339),
		"source_dir":  snap.SourceDir,
		"min_samples": strconv.Itoa(snap.MinSamples),
	}
	for key, value := range meta {
		if _, err := tx.Exec(`
			INSERT INTO metadata (key, value)
			VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value); err != nil {
			return fmt.Errorf("writing metadata %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// Counts returns the number of exported environments and stat rows.
func (s *Store) Counts() (environments, taxonStats int, err error) {
	if err := s.db.QueryRow("SELECT COUNT(*) FROM environments").Scan(&environments); err != nil {
		return 0, 0, fmt.Errorf("counting environments: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM taxon_stats").Scan(&taxonStats); err != nil {
		return 0, 0, fmt.Errorf("counting taxon_stats: %w", err)
	}
	return environments, taxonStats, nil
}
