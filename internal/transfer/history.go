package transfer

import "time"

// TransferStatus is the final outcome recorded for a submission.
type TransferStatus string

const (
	StatusPending   TransferStatus = "pending"
	StatusSucceeded TransferStatus = "succeeded"
	StatusWarning   TransferStatus = "warning"
	StatusFailed    TransferStatus = "failed"
	StatusCancelled TransferStatus = "cancelled"
)

// TransferRecord is the local history entry for one submission attempt.
type TransferRecord struct {
	ID             string
	Recipient      string
	Sender         string
	ExpirationDays int
	ItemCount      int
	TotalSize      int64
	ArchiveName    string
	TransferID     string
	Status         TransferStatus
	Message        string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// History persists submission attempts.
type History interface {
	CreateTransferRecord(rec *TransferRecord) error
	FinishTransferRecord(id string, status TransferStatus, transferID, message string, finishedAt time.Time) error
	// ListTransferRecords returns the most recent records, newest first.
	ListTransferRecords(limit int) ([]*TransferRecord, error)
}
