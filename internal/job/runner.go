package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/outpost-labs/outpost/internal/logger"
)

// Runner executes every eligible job in the store concurrently and
// aggregates the per-job outcomes into a single result for the caller.
type Runner struct {
	store *Store
}

// NewRunner creates a runner over the given store.
func NewRunner(store *Store) *Runner {
	return &Runner{store: store}
}

// Run claims every pending job, executes each in its own goroutine and
// waits for all of them to finish before returning. Each job's outcome is
// recorded into the job itself regardless of how its siblings fare; one
// command failing never blocks or delays another.
//
// The returned error follows the aggregation policy: nil when every job
// succeeded, the single *JobError when exactly one failed, and a
// *multierror.Error carrying the individual failures in completion order
// when two or more failed. A goroutine that dies before the job's own
// command can fail is recovered into a *SchedulingError and aggregated the
// same way.
func (r *Runner) Run(ctx context.Context) error {
	claimed := r.store.ClaimPending(time.Now().UTC())
	if len(claimed) == 0 {
		logger.Debug("No eligible jobs to run")
		return nil
	}

	logger.Infof("Running %d jobs", len(claimed))

	failures := make(chan error, len(claimed))
	var wg sync.WaitGroup

	for _, j := range claimed {
		wg.Add(1)
		go func(j *Job) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					failures <- &SchedulingError{JobID: j.ID(), Reason: fmt.Sprint(p)}
				}
			}()

			r.runOne(j, failures)
		}(j)
	}

	wg.Wait()
	close(failures)

	var errs []error
	for err := range failures {
		errs = append(errs, err)
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var agg *multierror.Error
	for _, err := range errs {
		agg = multierror.Append(agg, err)
	}
	return agg.ErrorOrNil()
}

// runOne executes a single claimed job and records its outcome. The job's
// start time was already stamped by the claim.
func (r *Runner) runOne(j *Job, failures chan<- error) {
	logger.Debugf("Executing job %s: %s", j.ID(), j.Action())

	output, err := j.Action().Execute()
	now := time.Now().UTC()

	if err != nil {
		if cErr := j.Complete(err.Error(), false, now); cErr != nil {
			logger.Errorf("Failed to record outcome for job %s: %v", j.ID(), cErr)
		}
		failures <- &JobError{JobID: j.ID(), Err: err}
		return
	}

	if cErr := j.Complete(output, true, now); cErr != nil {
		logger.Errorf("Failed to record outcome for job %s: %v", j.ID(), cErr)
	}
}
