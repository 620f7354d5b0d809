// Package archive records hill-climbing runs and every improved network in a
// SQLite database so a run's history can be inspected or resumed later.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// Run describes one hill-climbing run.
type Run struct {
	ID        string
	Layers    []int
	Seed      uint64
	CreatedAt time.Time
}

// Snapshot is a network recorded when it became the best of its run.
type Snapshot struct {
	RunID     string
	Iteration int
	Score     float64
	Network   []byte // Text form, as written by the network's WriteTo
	CreatedAt time.Time
}

// Store is a SQLite backed archive. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens or creates the archive at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "ping archive %s", path)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create archive tables")
	}
	return &Store{db: db}, nil
}

// NewRun registers a run and returns it with a fresh ID.
func (s *Store) NewRun(ctx context.Context, layers []int, seed uint64) (Run, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:        uuid.NewString(),
		Layers:    append([]int(nil), layers...),
		Seed:      seed,
		CreatedAt: time.Now().UTC(),
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, layers, seed, created_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, formatLayers(run.Layers), strconv.FormatUint(seed, 10), run.CreatedAt.UnixNano())
	if err != nil {
		return Run{}, errors.Wrap(err, "insert run")
	}
	return run, nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, err
	}
	var (
		layers, seed string
		created      int64
	)
	err = db.QueryRowContext(ctx, `SELECT layers, seed, created_at FROM runs WHERE id = ?`, id).
		Scan(&layers, &seed, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, errors.Wrapf(ErrNotFound, "run %s", id)
		}
		return Run{}, errors.Wrapf(err, "query run %s", id)
	}
	run := Run{ID: id, CreatedAt: time.Unix(0, created).UTC()}
	if run.Layers, err = parseLayers(layers); err != nil {
		return Run{}, errors.Wrapf(err, "decode layers of run %s", id)
	}
	if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return Run{}, errors.Wrapf(err, "decode seed of run %s", id)
	}
	return run, nil
}

// SaveSnapshot records net as the best network of runID at iteration.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, iteration int, score float64, net io.WriterTo) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	var payload bytes.Buffer
	if _, err := net.WriteTo(&payload); err != nil {
		return errors.Wrap(err, "serialize network")
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, iteration, score, network, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, iteration) DO UPDATE SET
			score = excluded.score,
			network = excluded.network,
			created_at = excluded.created_at
	`, runID, iteration, score, payload.Bytes(), time.Now().UTC().UnixNano())
	return errors.Wrapf(err, "insert snapshot %s/%d", runID, iteration)
}

// Best returns the lowest scoring snapshot of runID. Ties go to the earliest iteration.
func (s *Store) Best(ctx context.Context, runID string) (Snapshot, error) {
	snapshots, err := s.query(ctx, `
		SELECT run_id, iteration, score, network, created_at FROM snapshots
		WHERE run_id = ? ORDER BY score ASC, iteration ASC LIMIT 1
	`, runID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return Snapshot{}, errors.Wrapf(ErrNotFound, "snapshots of run %s", runID)
	}
	return snapshots[0], nil
}

// Snapshots returns every snapshot of runID in iteration order.
func (s *Store) Snapshots(ctx context.Context, runID string) ([]Snapshot, error) {
	return s.query(ctx, `
		SELECT run_id, iteration, score, network, created_at FROM snapshots
		WHERE run_id = ? ORDER BY iteration ASC
	`, runID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query snapshots")
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created int64
		)
		if err := rows.Scan(&snap.RunID, &snap.Iteration, &snap.Score, &snap.Network, &created); err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		snap.CreatedAt = time.Unix(0, created).UTC()
		snapshots = append(snapshots, snap)
	}
	return snapshots, errors.Wrap(rows.Err(), "iterate snapshots")
}

// Close closes the database. Further calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("archive is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			layers TEXT NOT NULL,
			seed TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(id),
			iteration INTEGER NOT NULL,
			score REAL NOT NULL,
			network BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, iteration)
		);
	`)
	return err
}

func formatLayers(layers []int) string {
	parts := make([]string, len(layers))
	for i, w := range layers {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, " ")
}

func parseLayers(s string) ([]int, error) {
	fields := strings.Fields(s)
	layers := make([]int, len(fields))
	for i, f := range fields {
		w, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		layers[i] = w
	}
	return layers, nil
}
