package dto

import (
	"time"

	"github.com/coursetable/ferry/internal/app/models"
)

// TriggerRunRequest is the body of POST /runs. Every field is optional.
type TriggerRunRequest struct {
	Persist *bool    `json:"persist"`
	Seasons []string `json:"seasons" validate:"omitempty,dive,seasoncode"`
}

// RunResponse describes one pipeline run
type RunResponse struct {
	ID         string           `json:"id"`
	Status     models.RunStatus `json:"status"`
	Trigger    string           `json:"trigger"`
	Persisted  bool             `json:"persisted"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
	// DurationMillis is set once the run finished
	DurationMillis *int64         `json:"durationMillis,omitempty"`
	Error          *string        `json:"error,omitempty"`
	Report         *models.Report `json:"report,omitempty"`
}

// RunListResponse is a page of runs, newest first
type RunListResponse struct {
	Runs       []RunResponse  `json:"runs"`
	Pagination PaginationInfo `json:"pagination"`
}

// FromPipelineRun converts a models.PipelineRun to a RunResponse
func FromPipelineRun(run *models.PipelineRun) RunResponse {
	resp := RunResponse{
		ID:         run.ID.String(),
		Status:     run.Status,
		Trigger:    run.Trigger,
		Persisted:  run.Persisted,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Error:      run.Error,
		Report:     run.Report,
	}
	if run.FinishedAt != nil {
		d := run.FinishedAt.Sub(run.StartedAt).Milliseconds()
		resp.DurationMillis = &d
	}
	return resp
}

// FromPipelineRuns converts a slice of runs
func FromPipelineRuns(runs []models.PipelineRun) []RunResponse {
	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, FromPipelineRun(&runs[i]))
	}
	return out
}
