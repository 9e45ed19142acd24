package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yegors/flightboard/internal/stands"
	"github.com/yegors/flightboard/pkg/logger"
	_ "modernc.org/sqlite"
)

// StandStore is a SQLite-backed stands.Store
type StandStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStandStore opens (and if needed creates) the stand database
func NewStandStore(dbPath string, log *logger.Logger) (*StandStore, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite stand storage",
		logger.String("path", dbPath))

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &StandStore{db: db, logger: storageLogger}, nil
}

// Close closes the database connection
func (s *StandStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Debug("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stands (
			airport TEXT NOT NULL,
			name TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			radius REAL NOT NULL DEFAULT 0,
			type TEXT NOT NULL DEFAULT 'contact',
			position INTEGER NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (airport, name)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create stands table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_stands_airport ON stands(airport, position)`)
	if err != nil {
		return fmt.Errorf("failed to create stands index: %w", err)
	}
	return nil
}

// Load returns every airport's stand list in stored order
func (s *StandStore) Load(ctx context.Context) (map[string][]stands.Stand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT airport, name, lat, lon, radius, type
		FROM stands
		ORDER BY airport, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stands: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]stands.Stand)
	for rows.Next() {
		var (
			icao string
			st   stands.Stand
		)
		if err := rows.Scan(&icao, &st.Name, &st.Lat, &st.Lon, &st.Radius, &st.Type); err != nil {
			return nil, fmt.Errorf("failed to scan stand: %w", err)
		}
		out[icao] = append(out[icao], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stands: %w", err)
	}
	return out, nil
}

// Save replaces the stand list of one airport in a single transaction
func (s *StandStore) Save(ctx context.Context, icao string, list []stands.Stand) error {
	icao = stands.Normalize(icao)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stands WHERE airport = ?`, icao); err != nil {
		return fmt.Errorf("failed to clear stands for %s: %w", icao, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stands (airport, name, lat, lon, radius, type, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range list {
		if _, err := stmt.ExecContext(ctx, icao, st.Name, st.Lat, st.Lon, st.Radius, st.Type, i); err != nil {
			return fmt.Errorf("failed to insert stand %s: %w", st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stands for %s: %w", icao, err)
	}

	s.logger.Debug("Stands saved",
		logger.String("airport", icao),
		logger.Int("count", len(list)))
	return nil
}
