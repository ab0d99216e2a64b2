// Package job implements the agent's job lifecycle: the Action value type,
// the mutable Job state machine, the in-memory Store, the concurrent Runner
// and the at-most-once Reporter.
package job

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job, derived from its fields
// rather than stored separately.
type Status string

// Job status constants
const (
	// StatusPending indicates the job has not started executing yet
	StatusPending Status = "pending"
	// StatusRunning indicates the job is currently executing
	StatusRunning Status = "running"
	// StatusCompleted indicates execution finished, successfully or not
	StatusCompleted Status = "completed"
	// StatusReported indicates a report for the job's outcome was dispatched
	StatusReported Status = "reported"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status
func ParseStatus(str string) (Status, error) {
	switch Status(str) {
	case StatusPending, StatusRunning, StatusCompleted, StatusReported:
		return Status(str), nil
	default:
		return "", fmt.Errorf("invalid job status: %s", str)
	}
}

// Definition carries the immutable fields of a job as delivered by the
// control plane.
type Definition struct {
	ID          string
	Name        string
	Description string
	Action      Action
	AgentID     string
	CreatedAt   time.Time
	// Timeout is the job's declared execution deadline. It is carried
	// through the lifecycle and reported back, but nothing cancels a
	// running job that exceeds it. Enforcement is an open product
	// decision; do not rely on it.
	Timeout time.Duration
}

// Job is a mutable lifecycle wrapper around an Action. A Job is shared by
// reference between the store, the runner and the reporter; every field
// access goes through its own mutex so updating one job never blocks
// another. StartedAt, CompletedAt, Result and Success are write-once.
type Job struct {
	mu sync.Mutex

	id          string
	name        string
	description string
	action      Action
	agentID     string
	createdAt   time.Time
	timeout     time.Duration

	startedAt   *time.Time
	completedAt *time.Time
	result      *string
	success     *bool
	submitted   bool
}

// New creates a Job from a definition. A missing ID is replaced with a fresh
// UUID and a zero CreatedAt with the current time.
func New(def Definition) *Job {
	if def.ID == "" {
		def.ID = uuid.New().String()
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now().UTC()
	}

	return &Job{
		id:          def.ID,
		name:        def.Name,
		description: def.Description,
		action:      def.Action,
		agentID:     def.AgentID,
		createdAt:   def.CreatedAt,
		timeout:     def.Timeout,
	}
}

// ID returns the job's unique identifier
func (j *Job) ID() string { return j.id }

// Name returns the job's name
func (j *Job) Name() string { return j.name }

// Description returns the job's free-form description
func (j *Job) Description() string { return j.description }

// Action returns the job's immutable action
func (j *Job) Action() Action { return j.action }

// AgentID returns the identifier of the agent that owns this job
func (j *Job) AgentID() string { return j.agentID }

// CreatedAt returns the job's creation timestamp
func (j *Job) CreatedAt() time.Time { return j.createdAt }

// Timeout returns the job's declared (unenforced) timeout
func (j *Job) Timeout() time.Duration { return j.timeout }

// Status derives the job's lifecycle state from its fields.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch {
	case j.submitted:
		return StatusReported
	case j.completedAt != nil:
		return StatusCompleted
	case j.startedAt != nil:
		return StatusRunning
	default:
		return StatusPending
	}
}

// Start stamps the job's start time. It fails if the job has already been
// started; a successful call closes the job's eligibility window for good.
func (j *Job) Start(now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.startedAt != nil {
		return fmt.Errorf("job %s already started at %s", j.id, j.startedAt.Format(time.RFC3339))
	}

	t := now.UTC()
	j.startedAt = &t
	return nil
}

// Complete records the job's outcome: captured output or an error
// description, the completion time and the success flag. The three fields
// are always written together and exactly once.
func (j *Job) Complete(result string, success bool, now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.completedAt != nil {
		return fmt.Errorf("job %s already completed at %s", j.id, j.completedAt.Format(time.RFC3339))
	}

	t := now.UTC()
	j.completedAt = &t
	j.result = &result
	j.success = &success
	return nil
}

// MarkSubmitted flips the submitted flag. The transition is monotonic: once
// a report has been dispatched for this job the flag never resets, which is
// what bounds reporting at most once per process.
func (j *Job) MarkSubmitted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.submitted = true
}

// Submitted reports whether a report attempt has been dispatched for this job.
func (j *Job) Submitted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.submitted
}

// StartedAt returns the start timestamp, or nil while the job is pending.
func (j *Job) StartedAt() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}

// CompletedAt returns the completion timestamp, or nil until execution finishes.
func (j *Job) CompletedAt() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completedAt
}

// Result returns the captured output or error description, or nil until the
// job completes.
func (j *Job) Result() *string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Success returns the job's success flag, or nil until the job completes.
func (j *Job) Success() *bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.success
}

// Report is the outbound payload communicating a job's outcome to the
// control plane. Fields not yet known are omitted from the wire format.
type Report struct {
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Results     *string    `json:"results,omitempty"`
	Success     *bool      `json:"success,omitempty"`
}

// Report builds the outcome payload for this job from its current state.
func (j *Job) Report() Report {
	j.mu.Lock()
	defer j.mu.Unlock()

	return Report{
		StartedAt:   j.startedAt,
		CompletedAt: j.completedAt,
		Results:     j.result,
		Success:     j.success,
	}
}

// jobJSON is the serialized form of a Job. Timestamps travel as RFC 3339 UTC
// strings, the timeout as whole seconds.
type jobJSON struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Action         Action     `json:"action"`
	AgentID        string     `json:"agent_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	TimeoutSeconds int64      `json:"timeout,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Result         *string    `json:"result,omitempty"`
	Success        *bool      `json:"success,omitempty"`
	Submitted      bool       `json:"submitted,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface for Job
func (j *Job) MarshalJSON() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return json.Marshal(jobJSON{
		ID:             j.id,
		Name:           j.name,
		Description:    j.description,
		Action:         j.action,
		AgentID:        j.agentID,
		CreatedAt:      j.createdAt,
		TimeoutSeconds: int64(j.timeout / time.Second),
		StartedAt:      j.startedAt,
		CompletedAt:    j.completedAt,
		Result:         j.result,
		Success:        j.success,
		Submitted:      j.submitted,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface for Job
func (j *Job) UnmarshalJSON(data []byte) error {
	var w jobJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.id = w.ID
	j.name = w.Name
	j.description = w.Description
	j.action = w.Action
	j.agentID = w.AgentID
	j.createdAt = w.CreatedAt
	j.timeout = time.Duration(w.TimeoutSeconds) * time.Second
	j.startedAt = w.StartedAt
	j.completedAt = w.CompletedAt
	j.result = w.Result
	j.success = w.Success
	j.submitted = w.Submitted
	return nil
}
