// Package storage provides the SQLite-backed alert journal.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"stockmon/internal/models"
)

// Journal records every emitted alert candidate for later audit. It is
// write-mostly: nothing in the monitoring path reads it back, and a
// restart never re-arms or suppresses alerts from journaled history.
type Journal struct {
	db        *sql.DB
	maxAlerts int
}

// Entry is one journaled alert row.
type Entry struct {
	ID        string
	Alert     models.Alert
	Delivered bool
}

// New opens or creates the journal database at dbPath.
// An empty dbPath defaults to $TMPDIR/stockmon/journal.db.
func New(maxAlerts int, dbPath string) (*Journal, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "stockmon", "journal.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	j := &Journal{db: db, maxAlerts: maxAlerts}
	if err := j.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return j, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id          TEXT PRIMARY KEY,
			code        TEXT NOT NULL,
			label       TEXT NOT NULL,
			kind        TEXT NOT NULL,
			title       TEXT NOT NULL,
			message     TEXT NOT NULL,
			critical    INTEGER NOT NULL DEFAULT 0,
			delivered   INTEGER NOT NULL DEFAULT 0,
			price       REAL NOT NULL DEFAULT 0,
			change_pct  REAL NOT NULL DEFAULT 0,
			detected_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_detected_at ON alerts(detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_code ON alerts(code)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts one alert row and enforces the newest-N cap.
func (j *Journal) Record(a models.Alert, delivered bool) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, code, label, kind, title, message, critical, delivered,
			 price, change_pct, detected_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.New().String(), a.Code, a.Label, string(a.Kind), a.Title, a.Message,
		boolToInt(a.Critical), boolToInt(delivered),
		a.Price, a.ChangePercent, a.DetectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY detected_at DESC LIMIT ?
		)`, j.maxAlerts); err != nil {
		return fmt.Errorf("failed to enforce alert cap: %w", err)
	}

	return tx.Commit()
}

// Recent returns the newest k entries, most recent first.
func (j *Journal) Recent(k int) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, code, label, kind, title, message, critical, delivered,
		       price, change_pct, detected_at
		FROM alerts ORDER BY detected_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var critical, delivered int
		var kind string
		var detectedAtNano int64

		err := rows.Scan(
			&e.ID, &e.Alert.Code, &e.Alert.Label, &kind, &e.Alert.Title, &e.Alert.Message,
			&critical, &delivered,
			&e.Alert.Price, &e.Alert.ChangePercent, &detectedAtNano,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		e.Alert.Kind = models.AlertKind(kind)
		e.Alert.Critical = critical != 0
		e.Delivered = delivered != 0
		e.Alert.DetectedAt = time.Unix(0, detectedAtNano)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// CountBySymbol returns how many journaled alerts exist for a symbol code.
func (j *Journal) CountBySymbol(code string) (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE code = ?`, code).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
