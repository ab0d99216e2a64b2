package job

import "fmt"

// ExecErrorKind classifies why spawning or waiting on a command failed.
type ExecErrorKind int

const (
	// ExecNotFound indicates the program could not be located on this host.
	ExecNotFound ExecErrorKind = iota
	// ExecIO indicates any other OS-level spawn or wait failure.
	ExecIO
)

// String returns the string representation of the error kind
func (k ExecErrorKind) String() string {
	switch k {
	case ExecNotFound:
		return "not_found"
	case ExecIO:
		return "io_failure"
	default:
		return "unknown"
	}
}

// ExecError is a per-job command failure. It is recovered into the job's
// result and success fields and never escalates beyond the runner.
type ExecError struct {
	Program string
	Kind    ExecErrorKind
	Err     error
}

// Error implements the error interface for ExecError
func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %q: %s: %v", e.Program, e.Kind, e.Err)
}

// Unwrap returns the underlying OS error
func (e *ExecError) Unwrap() error {
	return e.Err
}

// JobError wraps a single job's execution failure with the job's identity so
// that concurrent failures can be told apart after aggregation.
type JobError struct {
	JobID string
	Err   error
}

// Error implements the error interface for JobError
func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed: %v", e.JobID, e.Err)
}

// Unwrap returns the underlying execution error
func (e *JobError) Unwrap() error {
	return e.Err
}

// SchedulingError reports that the goroutine running a job failed before the
// job's own command could fail, e.g. a recovered panic. It is aggregated
// under the same policy as JobError.
type SchedulingError struct {
	JobID  string
	Reason string
}

// Error implements the error interface for SchedulingError
func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling job %s: %s", e.JobID, e.Reason)
}
