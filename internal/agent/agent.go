// Package agent wires the job engine to the control plane and drives the
// poll loop: fetch jobs, run them, report outcomes, sleep.
package agent

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/outpost-labs/outpost/internal/config"
	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/internal/logger"
	"github.com/outpost-labs/outpost/internal/tool"
	"github.com/outpost-labs/outpost/pkg/api/v1/client"
)

// Agent is the long-running fleet agent process.
type Agent struct {
	id       string
	hostname string
	platform string

	client   client.Client
	store    *job.Store
	runner   *job.Runner
	reporter *job.Reporter

	pollInterval  time.Duration
	heartbeatSpec string
	cron          *cron.Cron
}

// New creates an agent over the given client and configuration. The job
// store starts empty; identity is hydrated by Start.
func New(c client.Client, cfg *config.Config) *Agent {
	store := job.NewStore()

	return &Agent{
		client:        c,
		store:         store,
		runner:        job.NewRunner(store),
		reporter:      job.NewReporter(store, c),
		pollInterval:  cfg.PollInterval,
		heartbeatSpec: cfg.HeartbeatSpec,
	}
}

// ID returns the agent's control-plane identifier, empty before Start.
func (a *Agent) ID() string {
	return a.id
}

// Store returns the agent's job store.
func (a *Agent) Store() *job.Store {
	return a.store
}

// Start performs the one-time startup sequence: hydrate identity from the
// control plane, register hostname and platform, probe and submit the
// capability set, and start the presence heartbeat. Any failure here is
// fatal to process start.
func (a *Agent) Start(ctx context.Context) error {
	self, err := a.client.GetSelf(ctx)
	if err != nil {
		return fmt.Errorf("fetching agent identity: %w", err)
	}
	a.id = self.ID

	if err := a.register(ctx); err != nil {
		return fmt.Errorf("registering agent: %w", err)
	}

	if err := a.submitCapabilities(ctx); err != nil {
		return fmt.Errorf("submitting capabilities: %w", err)
	}

	if err := a.startHeartbeat(); err != nil {
		return fmt.Errorf("starting heartbeat: %w", err)
	}

	logger.InfoWithFields("Agent started", map[string]interface{}{
		"agent_id": a.id,
		"hostname": a.hostname,
		"platform": a.platform,
	})
	return nil
}

// register pushes this host's name and platform upstream.
func (a *Agent) register(ctx context.Context) error {
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("resolving hostname: %w", err)
	}

	a.hostname = hostname
	a.platform = platformName()

	return a.client.UpdateSelf(ctx, client.SelfPatch{
		Hostname: &a.hostname,
		Platform: &a.platform,
	})
}

// submitCapabilities probes the control plane's tool list on this host and
// reports which programs are runnable and in which version.
func (a *Agent) submitCapabilities(ctx context.Context) error {
	descriptors, err := a.client.GetTools(ctx)
	if err != nil {
		return fmt.Errorf("fetching tool list: %w", err)
	}

	tools := make([]*tool.Tool, 0, len(descriptors))
	for _, d := range descriptors {
		tools = append(tools, &tool.Tool{Program: d.Program, VersionArg: d.VersionArg})
	}
	tool.Probe(tools)

	capabilities := make([]client.Capability, 0, len(tools))
	for _, t := range tools {
		capabilities = append(capabilities, client.Capability{
			Program:   t.Program,
			Available: t.Available(),
			Version:   t.Version(),
		})
	}

	if len(capabilities) == 0 {
		return nil
	}
	return a.client.UpdateSelf(ctx, client.SelfPatch{Capabilities: capabilities})
}

// startHeartbeat schedules presence updates independent of the poll cycle.
func (a *Agent) startHeartbeat() error {
	a.cron = cron.New()

	_, err := a.cron.AddFunc(a.heartbeatSpec, func() {
		now := time.Now().UTC()
		err := a.client.UpdateSelf(context.Background(), client.SelfPatch{LastSeenAt: &now})
		if err != nil {
			logger.Errorf("Heartbeat failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	a.cron.Start()
	return nil
}

// Run drives the poll loop until the context is cancelled. Steady-state
// failures are logged and the loop continues on the next interval; only
// Start can fail the process.
func (a *Agent) Run(ctx context.Context) {
	logger.Infof("Polling every %s", a.pollInterval)

	for {
		if err := a.RunOnce(ctx); err != nil {
			logger.Errorf("Poll cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Agent received shutdown signal, stopping...")
			a.Stop()
			return
		case <-time.After(a.pollInterval):
		}
	}
}

// RunOnce drives a single poll cycle: health check, fetch new jobs into the
// store, run every eligible job, flush outcome reports. Job failures are
// recorded in the jobs themselves and logged here; they never abort the
// cycle, so their reports still go out. A transport failure aborts the
// remainder of the cycle.
func (a *Agent) RunOnce(ctx context.Context) error {
	if err := a.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}

	jobs, err := a.client.GetJobs(ctx)
	if err != nil {
		return fmt.Errorf("fetching jobs: %w", err)
	}
	if len(jobs) > 0 {
		a.store.Append(jobs...)
		logger.Infof("Fetched %d jobs (%d tracked)", len(jobs), a.store.Len())
	}

	if err := a.runner.Run(ctx); err != nil {
		logger.Errorf("Job run finished with failures: %v", err)
	}

	sent, err := a.reporter.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flushing reports: %w", err)
	}
	if sent > 0 {
		logger.Infof("Submitted %d job reports", sent)
	}

	return nil
}

// Stop halts the heartbeat scheduler.
func (a *Agent) Stop() {
	if a.cron != nil {
		a.cron.Stop()
	}
}

// platformName maps the runtime OS onto the control plane's platform names.
func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	default:
		return runtime.GOOS
	}
}
