package model

import "time"

// LORAction is a letter-of-recommendation command understood by the backend.
type LORAction string

const (
	LORGenerate LORAction = "generate"
	LORSend     LORAction = "send"
)

// Valid reports whether a is a known action.
func (a LORAction) Valid() bool {
	return a == LORGenerate || a == LORSend
}

// JobStatus tracks a LOR job through the worker pool.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job reached a final state.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// LORJob is a queued LOR command for one intern.
type LORJob struct {
	ID        string    `json:"id"`
	InternID  string    `json:"intern_id"`
	Action    LORAction `json:"action"`
	Key       string    `json:"key"`
	Status    JobStatus `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
