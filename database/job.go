package database

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobType represents the type of job
type JobType string

const (
	JobTypeScan       JobType = "scan"
	JobTypeMerge      JobType = "merge"
	JobTypeSplit      JobType = "split"
	JobTypeImages     JobType = "images"
	JobTypeCompress   JobType = "compress"
	JobTypeProtect    JobType = "protect"
	JobTypeUnprotect  JobType = "unprotect"
	JobTypeReorder    JobType = "reorder"
	JobTypeJobCleanup JobType = "job_cleanup"
)

// JobTypes lists every job type the server creates
var JobTypes = []JobType{
	JobTypeScan, JobTypeMerge, JobTypeSplit, JobTypeImages, JobTypeCompress,
	JobTypeProtect, JobTypeUnprotect, JobTypeReorder, JobTypeJobCleanup,
}

// Valid reports whether t is one of JobTypes
func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Job represents a background job or operation
type Job struct {
	ID          ulid.ULID  `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`         // 0-100
	CurrentStep string     `json:"currentStep"`      // Human-readable current step
	TotalSteps  int        `json:"totalSteps"`       // Total number of steps
	Message     string     `json:"message"`          // Status message
	Error       string     `json:"error,omitempty"`  // Error message if failed
	Result      string     `json:"result,omitempty"` // JSON result data
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Finished reports whether the job reached a terminal status
func (j *Job) Finished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobResult is the JSON stored in Job.Result for document operations
type JobResult struct {
	Outputs []string `json:"outputs"`
	Pages   int      `json:"pages,omitempty"`
	Details string   `json:"details,omitempty"`
}
