package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"migration-web/internal/models"
	"migration-web/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memJobStore is an in-memory JobStore used to test the lifecycle without a
// database. Error hooks let tests inject storage faults.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.MigrationJob
	logs []models.MigrationLog
	next int

	statusErr   error
	logErr      error
	finalizeErr error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*models.MigrationJob)}
}

func (m *memJobStore) Create(job *models.MigrationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		m.next++
		job.ID = fmt.Sprintf("job-%d", m.next)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	clone := *job
	m.jobs[job.ID] = &clone
	return nil
}

func (m *memJobStore) FindByUser(userID string, limit, offset int) ([]models.JobSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var summaries []models.JobSummary
	for _, job := range m.jobs {
		if job.UserID != userID {
			continue
		}
		summaries = append(summaries, models.JobSummary{
			ID:               job.ID,
			Name:             job.Name,
			SourceType:       job.SourceType,
			Status:           job.Status,
			TotalRecords:     job.TotalRecords,
			ProcessedRecords: job.ProcessedRecords,
			FailedRecords:    job.FailedRecords,
			CreatedAt:        job.CreatedAt,
			CompletedAt:      job.CompletedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	total := int64(len(summaries))
	if offset >= len(summaries) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(summaries) {
		end = len(summaries)
	}
	return summaries[offset:end], total, nil
}

func (m *memJobStore) FindByIDAndUser(id, userID string) (*models.MigrationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (m *memJobStore) UpdateStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return m.statusErr
	}
	if job, ok := m.jobs[id]; ok {
		job.Status = status
	}
	return nil
}

func (m *memJobStore) Finalize(id string, processed, failed int, errorLog models.StringList, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	if job, ok := m.jobs[id]; ok {
		job.Status = models.JobStatusCompleted
		job.ProcessedRecords = processed
		job.FailedRecords = failed
		job.ErrorLog = errorLog
		job.CompletedAt = &completedAt
	}
	return nil
}

func (m *memJobStore) MarkFailed(id string, errorLog models.StringList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Status = models.JobStatusFailed
		job.ErrorLog = errorLog
	}
	return nil
}

func (m *memJobStore) DeleteByIDAndUser(id, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.UserID != userID {
		return 0, nil
	}
	delete(m.jobs, id)
	return 1, nil
}

func (m *memJobStore) CreateLog(log *models.MigrationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	if log.ID == "" {
		log.ID = "log"
	}
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memJobStore) FindLogsByJob(jobID string) ([]models.MigrationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var logs []models.MigrationLog
	for _, entry := range m.logs {
		if entry.JobID == jobID {
			logs = append(logs, entry)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].RecordIndex < logs[j].RecordIndex })
	return logs, nil
}

func (m *memJobStore) DeleteLogsByJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	for _, entry := range m.logs {
		if entry.JobID != jobID {
			kept = append(kept, entry)
		}
	}
	m.logs = kept
	return nil
}

// fakeDelivery fails records selected by failIf and can block mid-loop for
// concurrency tests.
type fakeDelivery struct {
	mu      sync.Mutex
	records []models.Record
	failIf  func(record models.Record) error

	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *fakeDelivery) Deliver(ctx context.Context, dest models.DestinationConfig, record models.Record) error {
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.records = append(f.records, record)
	f.mu.Unlock()
	if f.failIf != nil {
		return f.failIf(record)
	}
	return nil
}

func newTestService(store JobStore, delivery DeliveryClient) *MigrationService {
	return NewMigrationService(store, delivery, nil, utils.GetLogger(), time.Minute, 100)
}

func createJob(t *testing.T, svc *MigrationService, userID string, records models.RecordList, mapping models.FieldMap) *models.MigrationJob {
	t.Helper()
	job, err := svc.Create(userID, &models.CreateJobRequest{
		Name:              "T1",
		SourceType:        "csv",
		SourceData:        records,
		DestinationConfig: models.DestinationConfig{Type: "novatab"},
		MappingConfig:     mapping,
	})
	require.NoError(t, err)
	return job
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemJobStore(), &fakeDelivery{})

	tests := []struct {
		name string
		req  models.CreateJobRequest
	}{
		{"missing name", models.CreateJobRequest{
			SourceType:        "csv",
			SourceData:        models.RecordList{},
			DestinationConfig: models.DestinationConfig{Type: "novatab"},
			MappingConfig:     models.FieldMap{},
		}},
		{"missing source type", models.CreateJobRequest{
			Name:              "T1",
			SourceData:        models.RecordList{},
			DestinationConfig: models.DestinationConfig{Type: "novatab"},
			MappingConfig:     models.FieldMap{},
		}},
		{"missing source data", models.CreateJobRequest{
			Name:              "T1",
			SourceType:        "csv",
			DestinationConfig: models.DestinationConfig{Type: "novatab"},
			MappingConfig:     models.FieldMap{},
		}},
		{"missing destination type", models.CreateJobRequest{
			Name:          "T1",
			SourceType:    "csv",
			SourceData:    models.RecordList{},
			MappingConfig: models.FieldMap{},
		}},
		{"missing mapping", models.CreateJobRequest{
			Name:              "T1",
			SourceType:        "csv",
			SourceData:        models.RecordList{},
			DestinationConfig: models.DestinationConfig{Type: "novatab"},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create("alice", &tc.req)
			assert.Error(t, err)
		})
	}
}

func TestCreateSetsPendingAndTotal(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{
		{"a": 1}, {"a": 2}, {"a": 3},
	}, models.FieldMap{"x": "a"})

	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 3, job.TotalRecords)
	assert.Equal(t, 0, job.ProcessedRecords)
	assert.Equal(t, 0, job.FailedRecords)
}

func TestExecuteAllRecordsSucceed(t *testing.T) {
	store := newMemJobStore()
	delivery := &fakeDelivery{}
	svc := newTestService(store, delivery)

	job := createJob(t, svc, "alice", models.RecordList{
		{"a": 1}, {"a": 2},
	}, models.FieldMap{"x": "a"})

	result, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	stored, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, stored.TotalRecords, stored.ProcessedRecords+stored.FailedRecords)
	require.NotNil(t, stored.CompletedAt)

	logs, err := svc.Logs("alice", job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for i, entry := range logs {
		assert.Equal(t, i, entry.RecordIndex)
		assert.Equal(t, models.LogStatusSuccess, entry.Status)
		assert.Nil(t, entry.ErrorMessage)
	}

	// Mapped records carried the renamed field
	require.Len(t, delivery.records, 2)
	assert.Equal(t, 1, delivery.records[0]["x"])
	assert.Equal(t, 2, delivery.records[1]["x"])
}

func TestExecutePartialFailureContinues(t *testing.T) {
	store := newMemJobStore()
	delivery := &fakeDelivery{
		failIf: func(record models.Record) error {
			if record["x"] == "bad" {
				return errors.New("rejected by destination")
			}
			return nil
		},
	}
	svc := newTestService(store, delivery)

	job := createJob(t, svc, "alice", models.RecordList{
		{"a": "ok"}, {"a": "bad"}, {"a": "ok"},
	}, models.FieldMap{"x": "a"})

	result, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Record 1: rejected by destination", result.Errors[0])

	// One bad record never blocks the rest: every index got a log row.
	logs, err := svc.Logs("alice", job.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	indices := make([]int, 0, len(logs))
	for _, entry := range logs {
		indices = append(indices, entry.RecordIndex)
	}
	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.Equal(t, models.LogStatusFailed, logs[1].Status)
	require.NotNil(t, logs[1].ErrorMessage)
	assert.Equal(t, "rejected by destination", *logs[1].ErrorMessage)

	// All records failing still finishes as completed.
	stored, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, stored.TotalRecords, stored.ProcessedRecords+stored.FailedRecords)
}

func TestExecuteEmptySourceData(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{}, models.FieldMap{"x": "a"})

	result, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Failed)

	stored, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)

	logs, err := svc.Logs("alice", job.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestExecuteCompletedJobRejected(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})

	_, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)

	before, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	logsBefore, err := svc.Logs("alice", job.ID)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), "alice", job.ID)
	assert.ErrorIs(t, err, ErrJobAlreadyCompleted)

	// No mutation on the rejected attempt
	after, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ProcessedRecords, after.ProcessedRecords)
	assert.Equal(t, before.FailedRecords, after.FailedRecords)
	logsAfter, err := svc.Logs("alice", job.ID)
	require.NoError(t, err)
	assert.Len(t, logsAfter, len(logsBefore))
}

func TestExecuteFailedJobCanRetry(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})

	// First run hits a storage fault at finalize: fatal, job marked failed.
	store.finalizeErr = errors.New("connection lost")
	_, err := svc.Execute(context.Background(), "alice", job.ID)
	require.Error(t, err)

	stored, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
	assert.Equal(t, models.StringList{"connection lost"}, stored.ErrorLog)

	// A failed job is not terminal for execute; the retry goes through.
	store.finalizeErr = nil
	result, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	stored, err = svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
}

func TestExecuteLogInsertFaultIsFatal(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})

	store.logErr = errors.New("log table gone")
	_, err := svc.Execute(context.Background(), "alice", job.ID)
	require.Error(t, err)

	stored, getErr := svc.Get("alice", job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
}

func TestOwnershipIsolation(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})

	// Account B gets the same NotFound as for a nonexistent id.
	_, err := svc.Get("bob", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, errMissing := svc.Get("bob", "no-such-job")
	assert.Equal(t, errMissing, err)

	_, err = svc.Execute(context.Background(), "bob", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete("bob", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The job is untouched for its owner.
	stored, err := svc.Get("alice", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, stored.Status)
}

func TestDeleteNonexistentJob(t *testing.T) {
	svc := newTestService(newMemJobStore(), &fakeDelivery{})
	err := svc.Delete("alice", "no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesLogs(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}, {"a": 2}}, models.FieldMap{"x": "a"})
	_, err := svc.Execute(context.Background(), "alice", job.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete("alice", job.ID))

	_, err = svc.Get("alice", job.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	logs, err := store.FindLogsByJob(job.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestConcurrentExecuteRejected(t *testing.T) {
	store := newMemJobStore()
	delivery := &fakeDelivery{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(store, delivery)

	job := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), "alice", job.ID)
		done <- err
	}()

	<-delivery.started
	_, err := svc.Execute(context.Background(), "alice", job.ID)
	assert.ErrorIs(t, err, ErrJobRunning)

	close(delivery.release)
	require.NoError(t, <-done)
}

func TestListReturnsSummariesNewestFirst(t *testing.T) {
	store := newMemJobStore()
	svc := newTestService(store, &fakeDelivery{})

	first := createJob(t, svc, "alice", models.RecordList{{"a": 1}}, models.FieldMap{"x": "a"})
	store.mu.Lock()
	store.jobs[first.ID].CreatedAt = time.Now().Add(-time.Hour)
	store.mu.Unlock()
	second := createJob(t, svc, "alice", models.RecordList{}, models.FieldMap{})
	createJob(t, svc, "bob", models.RecordList{}, models.FieldMap{})

	jobs, total, err := svc.List("alice", 25, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestApplyMapping(t *testing.T) {
	record := models.Record{"src1": "A", "src2": "B"}

	mapped := ApplyMapping(record, models.FieldMap{"dest1": "src1"})
	assert.Equal(t, models.Record{"dest1": "A"}, mapped)

	// A missing source field leaves the destination field absent, not failed.
	mapped = ApplyMapping(record, models.FieldMap{"dest1": "src1", "destX": "srcX"})
	assert.Equal(t, models.Record{"dest1": "A"}, mapped)
	_, present := mapped["destX"]
	assert.False(t, present)

	// Pure: the source record is untouched.
	assert.Equal(t, models.Record{"src1": "A", "src2": "B"}, record)

	assert.Empty(t, ApplyMapping(models.Record{}, models.FieldMap{"d": "s"}))
	assert.Empty(t, ApplyMapping(record, models.FieldMap{}))
}
