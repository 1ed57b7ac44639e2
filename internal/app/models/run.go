package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a pipeline run
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
)

// PipelineRun is the persisted record of one full rebuild.
type PipelineRun struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Status     RunStatus  `json:"status" db:"status"`
	Trigger    string     `json:"trigger" db:"trigger"`
	Persisted  bool       `json:"persisted" db:"persisted"`
	StartedAt  time.Time  `json:"startedAt" db:"started_at"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	Error      *string    `json:"error,omitempty" db:"error"`
	Report     *Report    `json:"report,omitempty" db:"report"`
}
