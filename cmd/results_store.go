package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/evac-sim/evac-sim/sim"
)

// RunResult is one row of the sweep results table.
type RunResult struct {
	Sweep      string
	Seed       int64
	Scenario   string
	Statistics sim.Statistics
}

// ResultsStore appends sweep results to a SQLite database.
type ResultsStore struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenResultsStore opens or creates the database at path.
func OpenResultsStore(path string) (*ResultsStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty results path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := initResultsSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	insert, err := db.Prepare(`INSERT INTO runs (
		sweep, seed, scenario, evacuees, non_evacuees, generations,
		mean_steps, median_steps, mean_time, median_time, p90_time, max_time
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ResultsStore{db: db, insert: insert}, nil
}

func initResultsSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS runs (
			sweep TEXT NOT NULL,
			seed INTEGER NOT NULL,
			scenario TEXT NOT NULL,
			evacuees INTEGER NOT NULL,
			non_evacuees INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			mean_steps REAL,
			median_steps REAL,
			mean_time REAL,
			median_time REAL,
			p90_time REAL,
			max_time REAL,
			PRIMARY KEY (sweep, seed)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores one run. Runs without evacuees store NULL for the time and step columns.
func (s *ResultsStore) Append(r RunResult) error {
	st := r.Statistics
	var meanSteps, medianSteps, meanTime, medianTime, p90Time, maxTime sql.NullFloat64
	if st.NumberOfEvacuees > 0 {
		meanSteps = sql.NullFloat64{Float64: st.MeanSteps, Valid: true}
		medianSteps = sql.NullFloat64{Float64: st.MedianSteps, Valid: true}
		meanTime = sql.NullFloat64{Float64: st.MeanEvacuationTime, Valid: true}
		medianTime = sql.NullFloat64{Float64: st.MedianEvacuationTime, Valid: true}
		p90Time = sql.NullFloat64{Float64: st.P90EvacuationTime, Valid: true}
		maxTime = sql.NullFloat64{Float64: st.MaxEvacuationTime, Valid: true}
	}
	_, err := s.insert.Exec(r.Sweep, r.Seed, r.Scenario, st.NumberOfEvacuees, st.NumberOfNonEvacuees, st.Generations,
		meanSteps, medianSteps, meanTime, medianTime, p90Time, maxTime)
	if err != nil {
		return fmt.Errorf("store run seed=%d: %w", r.Seed, err)
	}
	return nil
}

// Count returns the number of rows stored for sweep.
func (s *ResultsStore) Count(sweep string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE sweep = ?`, sweep).Scan(&n)
	return n, err
}

// Close releases the database.
func (s *ResultsStore) Close() error {
	_ = s.insert.Close()
	return s.db.Close()
}
