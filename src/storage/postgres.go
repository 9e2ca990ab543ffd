package storage

import (
	"database/sql"
	"fmt"

	"stock-deck/src/logger"
	"stock-deck/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// PostgresRecorder appends accepted live ticks to a Postgres table, for
// deployments that want session history off the local disk.
// -----------------------------------------------------------------------------

type PostgresRecorder struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresRecorder(cfg *models.MConfig, log *logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Recorder.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db
	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS session_ticks (
			symbol    TEXT NOT NULL,
			price     DOUBLE PRECISION NOT NULL,
			timestamp BIGINT NOT NULL
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
func (d *PostgresRecorder) RecordTick(symbol string, price float64, timestamp int64) error {
	_, err := d.DB.Exec(
		"INSERT INTO session_ticks (symbol, price, timestamp) VALUES ($1, $2, $3)",
		symbol, price, timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record tick for %s: %w", symbol, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRecorder) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
