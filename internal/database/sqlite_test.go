package database

import (
	"path/filepath"
	"testing"
	"time"

	"itransfer/internal/transfer"
)

func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(id string, started time.Time) *transfer.TransferRecord {
	return &transfer.TransferRecord{
		ID:             id,
		Recipient:      "bob@example.com",
		Sender:         "alice@example.com",
		ExpirationDays: 7,
		ItemCount:      2,
		TotalSize:      1024,
		ArchiveName:    "iTransfer_2401151030.zip",
		Status:         transfer.StatusPending,
		StartedAt:      started,
	}
}

func TestSQLiteDatabase_TransferRecords(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	if err := db.CreateTransferRecord(record("r1", base)); err != nil {
		t.Fatalf("CreateTransferRecord() error = %v", err)
	}
	if err := db.CreateTransferRecord(record("r2", base.Add(time.Minute))); err != nil {
		t.Fatalf("CreateTransferRecord() error = %v", err)
	}

	finished := base.Add(2 * time.Minute)
	if err := db.FinishTransferRecord("r1", transfer.StatusSucceeded, "file-123", "ok", finished); err != nil {
		t.Fatalf("FinishTransferRecord() error = %v", err)
	}

	recs, err := db.ListTransferRecords(10)
	if err != nil {
		t.Fatalf("ListTransferRecords() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].ID != "r2" || recs[1].ID != "r1" {
		t.Errorf("order = [%s %s], want [r2 r1]", recs[0].ID, recs[1].ID)
	}

	r1 := recs[1]
	if r1.Status != transfer.StatusSucceeded {
		t.Errorf("Status = %q, want %q", r1.Status, transfer.StatusSucceeded)
	}
	if r1.TransferID != "file-123" {
		t.Errorf("TransferID = %q, want %q", r1.TransferID, "file-123")
	}
	if r1.FinishedAt == nil || !r1.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", r1.FinishedAt, finished)
	}
	if !r1.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", r1.StartedAt, base)
	}
	if recs[0].FinishedAt != nil {
		t.Errorf("pending record FinishedAt = %v, want nil", recs[0].FinishedAt)
	}
	if r1.ArchiveName != "iTransfer_2401151030.zip" || r1.TotalSize != 1024 {
		t.Errorf("record = %+v", r1)
	}
}

func TestSQLiteDatabase_ListLimit(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := db.CreateTransferRecord(record(id, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := db.ListTransferRecords(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "c" {
		t.Errorf("got %d records, first %q", len(recs), recs[0].ID)
	}
}

func TestSQLiteDatabase_FinishUnknown(t *testing.T) {
	db := newTestDB(t)
	if err := db.FinishTransferRecord("missing", transfer.StatusFailed, "", "", time.Now()); err == nil {
		t.Fatal("FinishTransferRecord() expected error for unknown id")
	}
}

func TestSQLiteDatabase_Persistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateTransferRecord(record("keep", time.Now())); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reopened, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	recs, err := reopened.ListTransferRecords(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "keep" {
		t.Errorf("records after reopen = %+v", recs)
	}
	if reopened.Path() != path {
		t.Errorf("Path() = %q, want %q", reopened.Path(), path)
	}
}
