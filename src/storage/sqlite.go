package storage

import (
	"database/sql"
	"fmt"

	"stock-deck/src/logger"
	"stock-deck/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLiteRecorder appends accepted live ticks to a local SQLite file.
// Purely additive: none of the view/baseline/chart state is read back.
// -----------------------------------------------------------------------------

type SQLiteRecorder struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteRecorder(cfg *models.MConfig, log *logger.Logger) *SQLiteRecorder {
	return &SQLiteRecorder{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.Recorder.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS session_ticks (
			symbol    TEXT NOT NULL,
			price     REAL NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_session_ticks_symbol
			ON session_ticks (symbol, timestamp);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create session_ticks: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// RecordTick appends one accepted tick.
func (d *SQLiteRecorder) RecordTick(symbol string, price float64, timestamp int64) error {
	_, err := d.DB.Exec(
		"INSERT INTO session_ticks (symbol, price, timestamp) VALUES (?, ?, ?)",
		symbol, price, timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record tick for %s: %w", symbol, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteRecorder) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
