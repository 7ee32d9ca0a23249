package repository

import (
	"time"

	"migration-web/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *models.MigrationJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	query := `INSERT INTO migration_jobs (id, user_id, name, source_type, source_data,
	          destination_config, mapping_config, status, total_records)
	          VALUES (:id, :user_id, :name, :source_type, :source_data,
	          :destination_config, :mapping_config, :status, :total_records)`
	_, err := r.db.NamedExec(query, job)
	return err
}

// FindByUser returns job summaries for one account, newest first.
func (r *JobRepository) FindByUser(userID string, limit, offset int) ([]models.JobSummary, int64, error) {
	var jobs []models.JobSummary
	var total int64

	countQuery := "SELECT COUNT(*) FROM migration_jobs WHERE user_id = ?"
	if err := r.db.Get(&total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, source_type, status, total_records, processed_records,
	          failed_records, created_at, completed_at
	          FROM migration_jobs WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if err := r.db.Select(&jobs, query, userID, limit, offset); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// FindByIDAndUser folds the ownership check into the lookup: a job owned by
// someone else is indistinguishable from a missing one.
func (r *JobRepository) FindByIDAndUser(id, userID string) (*models.MigrationJob, error) {
	var job models.MigrationJob
	query := "SELECT * FROM migration_jobs WHERE id = ? AND user_id = ? LIMIT 1"
	err := r.db.Get(&job, query, id, userID)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) UpdateStatus(id, status string) error {
	query := "UPDATE migration_jobs SET status = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, id)
	return err
}

// Finalize records the terminal outcome of an execution run.
func (r *JobRepository) Finalize(id string, processed, failed int, errorLog models.StringList, completedAt time.Time) error {
	query := `UPDATE migration_jobs SET status = ?, processed_records = ?,
	          failed_records = ?, error_log = ?, completed_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, models.JobStatusCompleted, processed, failed, errorLog, completedAt, id)
	return err
}

func (r *JobRepository) MarkFailed(id string, errorLog models.StringList) error {
	query := "UPDATE migration_jobs SET status = ?, error_log = ? WHERE id = ?"
	_, err := r.db.Exec(query, models.JobStatusFailed, errorLog, id)
	return err
}

func (r *JobRepository) DeleteByIDAndUser(id, userID string) (int64, error) {
	query := "DELETE FROM migration_jobs WHERE id = ? AND user_id = ?"
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// Migration logs

func (r *JobRepository) CreateLog(log *models.MigrationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	query := `INSERT INTO migration_logs (id, job_id, record_index, status, error_message)
	          VALUES (:id, :job_id, :record_index, :status, :error_message)`
	_, err := r.db.NamedExec(query, log)
	return err
}

func (r *JobRepository) FindLogsByJob(jobID string) ([]models.MigrationLog, error) {
	var logs []models.MigrationLog
	query := `SELECT * FROM migration_logs WHERE job_id = ?
	          ORDER BY record_index, created_at`
	err := r.db.Select(&logs, query, jobID)
	return logs, err
}

func (r *JobRepository) DeleteLogsByJob(jobID string) error {
	query := "DELETE FROM migration_logs WHERE job_id = ?"
	_, err := r.db.Exec(query, jobID)
	return err
}
