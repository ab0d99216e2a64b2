package job

import (
	"sync"
	"time"
)

// Store is the agent's in-memory collection of known jobs. A single mutex
// protects the slice itself; it is held only for collection operations,
// never across job execution or network I/O. Jobs are appended and mutated
// in place, never removed, for the lifetime of the process.
type Store struct {
	mu   sync.Mutex
	jobs []*Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{}
}

// Append adds jobs to the end of the collection. No deduplication by ID is
// performed: the control plane is trusted not to hand out the same job
// twice, and if it does the job is simply tracked twice.
func (s *Store) Append(jobs ...*Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, jobs...)
}

// Snapshot returns a point-in-time copy of the current job handles. Callers
// iterate the copy without holding the store lock, so running a job or
// submitting a report never contends with Append.
func (s *Store) Snapshot() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// ClaimPending selects every pending job and stamps its start time while
// still holding the store lock. Stamping inside the selection closes each
// job's eligibility window before the lock is released, so two overlapping
// runner invocations can never claim the same job.
func (s *Store) ClaimPending(now time.Time) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []*Job
	for _, j := range s.jobs {
		if j.Start(now) == nil {
			claimed = append(claimed, j)
		}
	}
	return claimed
}

// Len returns the number of jobs currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
