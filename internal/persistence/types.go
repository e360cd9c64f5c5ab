package persistence

import "time"

// RunStatus is the lifecycle state of a recorded translation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one translate invocation for one input file.
type Run struct {
	ID             string
	InputPath      string
	OutputPath     string
	TargetLanguage string
	Status         RunStatus
	Entries        int
	Batches        int
	Succeeded      int
	Failed         int
	Cached         int
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BatchCheckpoint is a successful batch translation keyed by its content hash.
type BatchCheckpoint struct {
	Key             string
	RunID           string
	TranslatedLines []string
	UpdatedAt       time.Time
}

// CheckpointStats describes the batch checkpoint cache.
type CheckpointStats struct {
	Batches int
	Lines   int
	Oldest  time.Time
	Newest  time.Time
}
