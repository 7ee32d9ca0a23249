package models

import "time"

// Migration log entry statuses.
const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// MigrationLog is one per-record outcome row, tied to the record's
// 0-based position in the uploaded source data.
type MigrationLog struct {
	ID           string    `db:"id" json:"id"`
	JobID        string    `db:"job_id" json:"job_id"`
	RecordIndex  int       `db:"record_index" json:"record_index"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
