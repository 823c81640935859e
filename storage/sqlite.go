package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/baldhumanity/evoboard/neat"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs in a single SQLite file via the pure-Go driver,
// so binaries stay cgo-free.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the given database path. Init opens the
// database and creates the schema.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGenome(ctx context.Context, runID string, rec neat.GenomeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGenome(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genomes (run_id, genome_key, schema_version, fitness, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, genome_key) DO UPDATE SET
			schema_version = excluded.schema_version,
			fitness = excluded.fitness,
			payload = excluded.payload
	`, runID, rec.Key, schemaVersion, rec.Fitness, payload)
	return err
}

func (s *SQLiteStore) GetGenome(ctx context.Context, runID string, key int) (neat.GenomeRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return neat.GenomeRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM genomes WHERE run_id = ? AND genome_key = ?`, runID, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return neat.GenomeRecord{}, false, nil
		}
		return neat.GenomeRecord{}, false, err
	}

	rec, err := DecodeGenome(payload)
	if err != nil {
		return neat.GenomeRecord{}, false, fmt.Errorf("decode genome %d of run %s: %w", key, runID, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) SaveLedger(ctx context.Context, runID string, records []neat.InnovationRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeLedger(records)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO ledgers (run_id, schema_version, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			payload = excluded.payload
	`, runID, schemaVersion, payload)
	return err
}

func (s *SQLiteStore) GetLedger(ctx context.Context, runID string) ([]neat.InnovationRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM ledgers WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	records, err := DecodeLedger(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode ledger of run %s: %w", runID, err)
	}
	return records, true, nil
}

func (s *SQLiteStore) AppendGenerationStats(ctx context.Context, runID string, stats GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generation_stats (run_id, generation, best_key, best_fitness, mean_fitness, num_species)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_key = excluded.best_key,
			best_fitness = excluded.best_fitness,
			mean_fitness = excluded.mean_fitness,
			num_species = excluded.num_species
	`, runID, stats.Generation, stats.BestKey, stats.BestFitness, stats.MeanFitness, stats.NumSpecies)
	return err
}

func (s *SQLiteStore) GetGenerationStats(ctx context.Context, runID string) ([]GenerationStats, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, best_key, best_fitness, mean_fitness, num_species
		FROM generation_stats WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationStats
	for rows.Next() {
		var st GenerationStats
		if err := rows.Scan(&st.Generation, &st.BestKey, &st.BestFitness, &st.MeanFitness, &st.NumSpecies); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS genomes (
			run_id TEXT NOT NULL,
			genome_key INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			fitness REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, genome_key)
		);
		CREATE TABLE IF NOT EXISTS ledgers (
			run_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generation_stats (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_key INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			mean_fitness REAL NOT NULL,
			num_species INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
