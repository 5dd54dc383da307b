package domain

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobTimedOut  JobStatus = "timed-out"
)

// Terminal reports whether polling should stop for this status.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobTimedOut
}

// JobHandle tracks a unit of work submitted to an external job runner.
type JobHandle struct {
	JobID            string    `json:"jobId"`
	Status           JobStatus `json:"status"`
	ResultLocationID string    `json:"resultLocationId,omitempty"`
	Attempts         int       `json:"attempts"`
}
