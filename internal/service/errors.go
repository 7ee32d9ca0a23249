package service

import "errors"

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// account, so existence never leaks across tenants.
	ErrNotFound = errors.New("not found")

	// ErrJobAlreadyCompleted rejects re-execution of a completed job.
	ErrJobAlreadyCompleted = errors.New("job already completed")

	// ErrJobRunning rejects a second execute while one holds the lease.
	ErrJobRunning = errors.New("job execution already in progress")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
