package worker

import (
	"context"
	"encoding/json"
	"errors"

	"migration-web/internal/config"
	"migration-web/internal/handler"
	"migration-web/internal/repository"
	"migration-web/internal/service"
	"migration-web/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ExecuteHandler runs a migration job on the worker. It reuses the same
// executor as the synchronous endpoint, so the lease keeps web and worker
// from running one job twice.
type ExecuteHandler struct {
	migrationService *service.MigrationService
	log              *logrus.Logger
}

func NewExecuteHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *ExecuteHandler {
	log := utils.GetLogger()
	jobRepo := repository.NewJobRepository(db)
	migrationService := service.NewMigrationService(jobRepo, service.NewNovaTabClient(),
		redisClient, log, cfg.LeaseTTL, cfg.ProgressEvery)

	return &ExecuteHandler{
		migrationService: migrationService,
		log:              log,
	}
}

func (h *ExecuteHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload handler.ExecuteTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := h.migrationService.Execute(ctx, payload.UserID, payload.JobID)
	if err != nil {
		// The job moved or finished between enqueue and pickup; retrying
		// cannot change that.
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrJobAlreadyCompleted) ||
			errors.Is(err, service.ErrJobRunning) {
			h.log.WithError(err).WithField("job_id", payload.JobID).Warn("skipping migration task")
			return nil
		}
		return err
	}

	h.log.WithFields(logrus.Fields{
		"job_id":    payload.JobID,
		"processed": result.Processed,
		"failed":    result.Failed,
	}).Info("background migration finished")

	return nil
}
