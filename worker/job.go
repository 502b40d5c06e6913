package worker

import (
	"time"

	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/types"
)

// Status is the lifecycle of a job: queued -> running -> succeeded | failed.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions happen.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Request asks for one asynchronous pipeline run.
type Request struct {
	Modality pipeline.Modality `json:"modality"`
	Prompt   string            `json:"prompt"`
	Params   types.Params      `json:"-"`
	UserID   string            `json:"user_id,omitempty"`
}

// Job is a point-in-time snapshot of a submitted request.
type Job struct {
	ID         string            `json:"id"`
	Modality   pipeline.Modality `json:"modality"`
	Prompt     string            `json:"prompt"`
	UserID     string            `json:"user_id,omitempty"`
	Status     Status            `json:"status"`
	Attempts   int               `json:"attempts"`
	AssetID    string            `json:"asset_id,omitempty"`
	ErrorCode  types.ErrorCode   `json:"error_code,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// entry is the mutable record behind a Job. Guarded by Worker.mu.
type entry struct {
	job     Job
	request Request
	done    chan struct{}
}

func (e *entry) snapshot() Job {
	j := e.job
	if j.StartedAt != nil {
		t := *j.StartedAt
		j.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		j.FinishedAt = &t
	}
	return j
}

// StoredAsset is a finished asset together with the user whose job made it.
type StoredAsset struct {
	Asset  types.Asset
	UserID string
}
