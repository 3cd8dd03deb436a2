package database

import (
	"database/sql"
	"fmt"
	"time"

	"itransfer/internal/database/migrations"
	"itransfer/internal/transfer"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase stores the local transfer history in SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ transfer.History = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the database at path and applies pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// CreateTransferRecord inserts a new history row.
func (s *SQLiteDatabase) CreateTransferRecord(rec *transfer.TransferRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO transfers (id, recipient, sender, expiration_days, item_count, total_size,
			archive_name, transfer_id, status, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Recipient, rec.Sender, rec.ExpirationDays, rec.ItemCount, rec.TotalSize,
		rec.ArchiveName, rec.TransferID, string(rec.Status), rec.Message, rec.StartedAt.UTC(), nullTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("creating transfer record: %w", err)
	}
	return nil
}

// FinishTransferRecord records the outcome of a submission.
func (s *SQLiteDatabase) FinishTransferRecord(id string, status transfer.TransferStatus, transferID, message string, finishedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE transfers SET status = ?, transfer_id = ?, message = ?, finished_at = ?
		WHERE id = ?`,
		string(status), transferID, message, finishedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing transfer record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing transfer record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transfer record %s not found", id)
	}
	return nil
}

// ListTransferRecords returns up to limit records, newest first.
func (s *SQLiteDatabase) ListTransferRecords(limit int) ([]*transfer.TransferRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, recipient, sender, expiration_days, item_count, total_size,
			archive_name, transfer_id, status, message, started_at, finished_at
		FROM transfers
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transfer records: %w", err)
	}
	defer rows.Close()

	var out []*transfer.TransferRecord
	for rows.Next() {
		var rec transfer.TransferRecord
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Recipient, &rec.Sender, &rec.ExpirationDays, &rec.ItemCount,
			&rec.TotalSize, &rec.ArchiveName, &rec.TransferID, &status, &rec.Message, &rec.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning transfer record: %w", err)
		}
		rec.Status = transfer.TransferStatus(status)
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transfer records: %w", err)
	}
	return out, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
