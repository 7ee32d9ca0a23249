package models

import "time"

// Migration job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type MigrationJob struct {
	ID                string            `db:"id" json:"id"`
	UserID            string            `db:"user_id" json:"user_id"`
	Name              string            `db:"name" json:"name"`
	SourceType        string            `db:"source_type" json:"source_type"`
	SourceData        RecordList        `db:"source_data" json:"source_data"`
	DestinationConfig DestinationConfig `db:"destination_config" json:"destination_config"`
	MappingConfig     FieldMap          `db:"mapping_config" json:"mapping_config"`
	Status            string            `db:"status" json:"status"`
	TotalRecords      int               `db:"total_records" json:"total_records"`
	ProcessedRecords  int               `db:"processed_records" json:"processed_records"`
	FailedRecords     int               `db:"failed_records" json:"failed_records"`
	ErrorLog          StringList        `db:"error_log" json:"error_log,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	CompletedAt       *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}

// JobSummary is the list projection: no source data, no mapping.
type JobSummary struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	SourceType       string     `db:"source_type" json:"source_type"`
	Status           string     `db:"status" json:"status"`
	TotalRecords     int        `db:"total_records" json:"total_records"`
	ProcessedRecords int        `db:"processed_records" json:"processed_records"`
	FailedRecords    int        `db:"failed_records" json:"failed_records"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

type CreateJobRequest struct {
	Name              string            `json:"name"`
	SourceType        string            `json:"source_type"`
	SourceData        RecordList        `json:"source_data"`
	DestinationConfig DestinationConfig `json:"destination_config"`
	MappingConfig     FieldMap          `json:"mapping_config"`
}

// ExecutionResult is what a finished execute call reports back.
type ExecutionResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
