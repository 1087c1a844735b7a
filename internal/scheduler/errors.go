package scheduler

import "errors"

var (
	// ErrInvalidSchedule is returned by Register when the cron expression
	// cannot be parsed. The task table is left unchanged.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrUnknownFeed is returned when a trigger names a feed that has no
	// registered task.
	ErrUnknownFeed = errors.New("feed not registered")

	// ErrGateCancelled is returned when a job is cancelled while waiting
	// for a concurrency permit.
	ErrGateCancelled = errors.New("cancelled while waiting for permit")

	// ErrNotRunning is returned by triggers after Shutdown or before Start.
	ErrNotRunning = errors.New("scheduler is not running")
)
