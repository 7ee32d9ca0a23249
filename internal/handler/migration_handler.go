package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"migration-web/internal/middleware"
	"migration-web/internal/models"
	"migration-web/internal/service"
	"migration-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

// TaskTypeExecuteMigration is the asynq task consumed by cmd/worker.
const TaskTypeExecuteMigration = "migration:execute"

type ExecuteTaskPayload struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

type MigrationHandler struct {
	migrationService *service.MigrationService
	parseService     *service.ParseService
	exportService    *service.ExportService
	asynqClient      *asynq.Client // nil when Redis is unavailable
}

func NewMigrationHandler(
	migrationService *service.MigrationService,
	parseService *service.ParseService,
	exportService *service.ExportService,
	asynqClient *asynq.Client,
) *MigrationHandler {
	return &MigrationHandler{
		migrationService: migrationService,
		parseService:     parseService,
		exportService:    exportService,
		asynqClient:      asynqClient,
	}
}

func (h *MigrationHandler) CreateJob(c *fiber.Ctx) error {
	var req models.CreateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	job, err := h.migrationService.Create(middleware.UserID(c), &req)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	return utils.CreatedResponse(c, "Migration job created", fiber.Map{
		"job_id": job.ID,
	})
}

func (h *MigrationHandler) GetJobs(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	jobs, total, err := h.migrationService.List(middleware.UserID(c), params.Limit, offset)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve migration jobs", err)
	}

	return utils.SuccessResponse(c, "Migration jobs retrieved successfully", fiber.Map{
		"jobs":       jobs,
		"pagination": utils.CalculatePagination(params.Page, params.Limit, total),
	})
}

func (h *MigrationHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.migrationService.Get(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve migration job")
	}

	return utils.SuccessResponse(c, "Migration job retrieved successfully", job)
}

func (h *MigrationHandler) ExecuteJob(c *fiber.Ctx) error {
	result, err := h.migrationService.Execute(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Migration execution failed")
	}

	return utils.SuccessResponse(c, "Migration completed", result)
}

// ExecuteJobAsync enqueues the run on the worker instead of holding the
// request open; callers poll the progress endpoint.
func (h *MigrationHandler) ExecuteJobAsync(c *fiber.Ctx) error {
	if h.asynqClient == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Background execution is not available", nil)
	}

	userID := middleware.UserID(c)
	jobID := c.Params("id")

	// Same preconditions as the synchronous path, checked before enqueue.
	job, err := h.migrationService.Get(userID, jobID)
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve migration job")
	}
	if job.Status == models.JobStatusCompleted {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Job already completed", nil)
	}

	payload, err := json.Marshal(ExecuteTaskPayload{JobID: jobID, UserID: userID})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue migration", err)
	}

	info, err := h.asynqClient.Enqueue(
		asynq.NewTask(TaskTypeExecuteMigration, payload),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to enqueue migration", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(utils.APIResponse{
		Success: true,
		Message: "Migration enqueued",
		Data:    fiber.Map{"task_id": info.ID, "queue": info.Queue},
	})
}

func (h *MigrationHandler) GetProgress(c *fiber.Ctx) error {
	progress, err := h.migrationService.GetProgress(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve progress")
	}

	return utils.SuccessResponse(c, "Progress retrieved successfully", progress)
}

func (h *MigrationHandler) GetLogs(c *fiber.Ctx) error {
	logs, err := h.migrationService.Logs(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve migration logs")
	}

	return utils.SuccessResponse(c, "Migration logs retrieved successfully", fiber.Map{
		"logs": logs,
	})
}

func (h *MigrationHandler) ExportLogs(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	jobID := c.Params("id")

	job, err := h.migrationService.Get(userID, jobID)
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve migration job")
	}

	logs, err := h.migrationService.Logs(userID, jobID)
	if err != nil {
		return h.serviceError(c, err, "Failed to retrieve migration logs")
	}

	buf, err := h.exportService.ExportLogs(job, logs)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export migration logs", err)
	}

	filename := fmt.Sprintf("migration_log_%s_%s.xlsx", job.ID, time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

func (h *MigrationHandler) DeleteJob(c *fiber.Ctx) error {
	if err := h.migrationService.Delete(middleware.UserID(c), c.Params("id")); err != nil {
		return h.serviceError(c, err, "Failed to delete migration job")
	}

	return utils.SuccessResponse(c, "Job deleted successfully", nil)
}

// ParseFile turns an uploaded CSV/JSON/Excel file into records the caller
// can map and submit as a job's source data.
func (h *MigrationHandler) ParseFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File is required", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to open uploaded file", err)
	}
	defer file.Close()

	records, err := h.parseService.Parse(fileHeader.Filename, file)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	return utils.SuccessResponse(c, "File parsed successfully", fiber.Map{
		"source_type": h.parseService.SourceTypeFor(fileHeader.Filename),
		"records":     records,
		"total":       len(records),
	})
}

func (h *MigrationHandler) serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Job not found", nil)
	case errors.Is(err, service.ErrJobAlreadyCompleted):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Job already completed", nil)
	case errors.Is(err, service.ErrJobRunning):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Job execution already in progress", nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, fallback, err)
	}
}
