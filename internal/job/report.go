package job

import (
	"context"
	"fmt"

	"github.com/outpost-labs/outpost/internal/logger"
)

// Submitter dispatches one job's outcome report to the control plane.
type Submitter interface {
	ReportJob(ctx context.Context, jobID string, report Report) error
}

// Reporter delivers job outcomes upstream, at most once per job per process.
type Reporter struct {
	store     *Store
	submitter Submitter
}

// NewReporter creates a reporter over the given store and submitter.
func NewReporter(store *Store, submitter Submitter) *Reporter {
	return &Reporter{store: store, submitter: submitter}
}

// Flush snapshots the store and sends a report for every job not yet
// submitted. Each job is marked submitted before its report goes out: if the
// process dies mid-loop the failure mode is an under-reported job, never a
// duplicate report.
//
// A transport failure propagates to the caller and aborts the remaining
// submissions of this cycle without rolling the flag back, so the failed
// job's report is not retried on a later cycle. Flush returns the number of
// reports dispatched.
func (r *Reporter) Flush(ctx context.Context) (int, error) {
	var sent int
	for _, j := range r.store.Snapshot() {
		if j.Submitted() {
			continue
		}

		j.MarkSubmitted()

		if err := r.submitter.ReportJob(ctx, j.ID(), j.Report()); err != nil {
			return sent, fmt.Errorf("reporting job %s: %w", j.ID(), err)
		}

		logger.Debugf("Reported job %s", j.ID())
		sent++
	}
	return sent, nil
}
