package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"migration-web/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// JobStore is what the lifecycle needs from persistent storage. Implemented
// by repository.JobRepository; tests substitute an in-memory store.
type JobStore interface {
	Create(job *models.MigrationJob) error
	FindByUser(userID string, limit, offset int) ([]models.JobSummary, int64, error)
	FindByIDAndUser(id, userID string) (*models.MigrationJob, error)
	UpdateStatus(id, status string) error
	Finalize(id string, processed, failed int, errorLog models.StringList, completedAt time.Time) error
	MarkFailed(id string, errorLog models.StringList) error
	DeleteByIDAndUser(id, userID string) (int64, error)
	CreateLog(log *models.MigrationLog) error
	FindLogsByJob(jobID string) ([]models.MigrationLog, error)
	DeleteLogsByJob(jobID string) error
}

type MigrationService struct {
	jobs     JobStore
	delivery DeliveryClient
	redis    *redis.Client // optional: execution lease + progress keys
	log      *logrus.Logger

	leaseTTL      time.Duration
	progressEvery int

	running sync.Map // jobID -> struct{}, in-process execution guard
}

func NewMigrationService(jobs JobStore, delivery DeliveryClient, redisClient *redis.Client, log *logrus.Logger, leaseTTL time.Duration, progressEvery int) *MigrationService {
	if progressEvery < 1 {
		progressEvery = 100
	}
	return &MigrationService{
		jobs:          jobs,
		delivery:      delivery,
		redis:         redisClient,
		log:           log,
		leaseTTL:      leaseTTL,
		progressEvery: progressEvery,
	}
}

// Create validates the request shape and persists a pending job. The total
// record count is fixed here; execution never changes it.
func (s *MigrationService) Create(userID string, req *models.CreateJobRequest) (*models.MigrationJob, error) {
	if err := validateCreateJob(req); err != nil {
		return nil, err
	}

	job := &models.MigrationJob{
		UserID:            userID,
		Name:              req.Name,
		SourceType:        req.SourceType,
		SourceData:        req.SourceData,
		DestinationConfig: req.DestinationConfig,
		MappingConfig:     req.MappingConfig,
		Status:            models.JobStatusPending,
		TotalRecords:      len(req.SourceData),
	}

	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

func validateCreateJob(req *models.CreateJobRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.SourceType == "" {
		return fmt.Errorf("source_type is required")
	}
	if req.SourceData == nil {
		return fmt.Errorf("source_data is required")
	}
	if req.DestinationConfig.Type == "" {
		return fmt.Errorf("destination_config.type is required")
	}
	if req.MappingConfig == nil {
		return fmt.Errorf("mapping_config is required")
	}
	return nil
}

func (s *MigrationService) List(userID string, limit, offset int) ([]models.JobSummary, int64, error) {
	return s.jobs.FindByUser(userID, limit, offset)
}

func (s *MigrationService) Get(userID, jobID string) (*models.MigrationJob, error) {
	job, err := s.jobs.FindByIDAndUser(jobID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func (s *MigrationService) Logs(userID, jobID string) ([]models.MigrationLog, error) {
	if _, err := s.Get(userID, jobID); err != nil {
		return nil, err
	}
	return s.jobs.FindLogsByJob(jobID)
}

// Execute runs the field-mapping loop over the job's source snapshot,
// synchronously, in strict source order. Per-record delivery failures are
// logged and counted but never stop the loop; the job still finishes as
// completed. Only a storage fault outside the per-record boundary marks the
// job failed.
func (s *MigrationService) Execute(ctx context.Context, userID, jobID string) (*models.ExecutionResult, error) {
	job, err := s.Get(userID, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == models.JobStatusCompleted {
		return nil, ErrJobAlreadyCompleted
	}

	if err := s.acquireLease(ctx, job.ID); err != nil {
		return nil, err
	}
	defer s.releaseLease(ctx, job.ID)

	result, err := s.run(ctx, job)
	if err != nil {
		// Fatal outcome: capture the cause on the job, distinct from
		// per-record failures.
		if markErr := s.jobs.MarkFailed(job.ID, models.StringList{err.Error()}); markErr != nil {
			s.log.WithError(markErr).WithField("job_id", job.ID).Error("failed to mark job as failed")
		}
		return nil, err
	}
	return result, nil
}

func (s *MigrationService) run(ctx context.Context, job *models.MigrationJob) (*models.ExecutionResult, error) {
	// Visible to concurrent readers before the first record is touched.
	if err := s.jobs.UpdateStatus(job.ID, models.JobStatusProcessing); err != nil {
		return nil, err
	}

	processed := 0
	failed := 0
	var errorList []string

	for i, record := range job.SourceData {
		mapped := ApplyMapping(record, job.MappingConfig)

		if err := s.delivery.Deliver(ctx, job.DestinationConfig, mapped); err != nil {
			failed++
			msg := err.Error()
			errorList = append(errorList, fmt.Sprintf("Record %d: %s", i, msg))

			if logErr := s.jobs.CreateLog(&models.MigrationLog{
				JobID:        job.ID,
				RecordIndex:  i,
				Status:       models.LogStatusFailed,
				ErrorMessage: &msg,
			}); logErr != nil {
				return nil, logErr
			}
		} else {
			if logErr := s.jobs.CreateLog(&models.MigrationLog{
				JobID:       job.ID,
				RecordIndex: i,
				Status:      models.LogStatusSuccess,
			}); logErr != nil {
				return nil, logErr
			}
			processed++
		}

		if (i+1)%s.progressEvery == 0 {
			s.publishProgress(ctx, job.ID, processed, failed, job.TotalRecords)
		}
	}

	if err := s.jobs.Finalize(job.ID, processed, failed, errorList, time.Now()); err != nil {
		return nil, err
	}
	s.publishProgress(ctx, job.ID, processed, failed, job.TotalRecords)

	s.log.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"processed": processed,
		"failed":    failed,
	}).Info("migration completed")

	return &models.ExecutionResult{
		Processed: processed,
		Failed:    failed,
		Errors:    errorList,
	}, nil
}

// Delete removes the job and its log rows. Logs are cascade-deleted so the
// log table cannot accumulate orphans.
func (s *MigrationService) Delete(userID, jobID string) error {
	affected, err := s.jobs.DeleteByIDAndUser(jobID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return s.jobs.DeleteLogsByJob(jobID)
}

// ApplyMapping builds the destination record: for every destination field in
// the mapping, copy the named source field's value. A source field missing
// from the record leaves the destination field absent; it is not an error.
func ApplyMapping(record models.Record, mapping models.FieldMap) models.Record {
	mapped := make(models.Record, len(mapping))
	for destField, sourceField := range mapping {
		if value, ok := record[sourceField]; ok {
			mapped[destField] = value
		}
	}
	return mapped
}

// Execution lease

func leaseKey(jobID string) string {
	return "migration:lease:" + jobID
}

func progressKey(jobID string) string {
	return "migration:progress:" + jobID
}

// acquireLease guards against two execute calls racing on one job. The
// in-process guard always applies; with Redis configured the lease also
// holds across processes (web and worker).
func (s *MigrationService) acquireLease(ctx context.Context, jobID string) error {
	if _, loaded := s.running.LoadOrStore(jobID, struct{}{}); loaded {
		return ErrJobRunning
	}

	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, leaseKey(jobID), "1", s.leaseTTL).Result()
		if err != nil {
			s.running.Delete(jobID)
			return err
		}
		if !ok {
			s.running.Delete(jobID)
			return ErrJobRunning
		}
	}
	return nil
}

func (s *MigrationService) releaseLease(ctx context.Context, jobID string) {
	s.running.Delete(jobID)
	if s.redis != nil {
		if err := s.redis.Del(ctx, leaseKey(jobID)).Err(); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Warn("failed to release execution lease")
		}
	}
}

type Progress struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

func (s *MigrationService) publishProgress(ctx context.Context, jobID string, processed, failed, total int) {
	if s.redis == nil {
		return
	}
	payload, _ := json.Marshal(Progress{Processed: processed, Failed: failed, Total: total})
	if err := s.redis.Set(ctx, progressKey(jobID), payload, s.leaseTTL).Err(); err != nil {
		s.log.WithError(err).WithField("job_id", jobID).Warn("failed to publish progress")
	}
}

// GetProgress reads the live counters of a running execution. Falls back to
// the stored job counters when no progress key exists (or Redis is absent).
func (s *MigrationService) GetProgress(ctx context.Context, userID, jobID string) (*Progress, error) {
	job, err := s.Get(userID, jobID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, progressKey(jobID)).Bytes()
		if err == nil {
			var p Progress
			if json.Unmarshal(raw, &p) == nil {
				return &p, nil
			}
		}
	}

	return &Progress{
		Processed: job.ProcessedRecords,
		Failed:    job.FailedRecords,
		Total:     job.TotalRecords,
	}, nil
}
