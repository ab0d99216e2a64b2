// Package mock provides a function-field mock of the API client for tests.
package mock

import (
	"context"
	"sync"

	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/pkg/api/v1/client"
)

var _ client.Client = &MockClient{}

// ReportJobCall records one ReportJob invocation.
type ReportJobCall struct {
	JobID  string
	Report job.Report
}

// MockClient implements client.Client with overridable function fields.
// Unset fields behave as successful no-ops. Call records are guarded by a
// mutex: the heartbeat invokes UpdateSelf from its own goroutine.
type MockClient struct {
	HealthCheckFn func(ctx context.Context) error
	GetSelfFn     func(ctx context.Context) (client.AgentSelf, error)
	UpdateSelfFn  func(ctx context.Context, patch client.SelfPatch) error
	GetToolsFn    func(ctx context.Context) ([]client.ToolDescriptor, error)
	GetJobsFn     func(ctx context.Context) ([]*job.Job, error)
	ReportJobFn   func(ctx context.Context, jobID string, report job.Report) error

	mu              sync.Mutex
	updateSelfCalls []client.SelfPatch
	reportJobCalls  []ReportJobCall
}

// UpdateSelfCalls returns a copy of the recorded UpdateSelf invocations.
func (m *MockClient) UpdateSelfCalls() []client.SelfPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]client.SelfPatch, len(m.updateSelfCalls))
	copy(out, m.updateSelfCalls)
	return out
}

// ReportJobCalls returns a copy of the recorded ReportJob invocations.
func (m *MockClient) ReportJobCalls() []ReportJobCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReportJobCall, len(m.reportJobCalls))
	copy(out, m.reportJobCalls)
	return out
}

// HealthCheck implements client.Client
func (m *MockClient) HealthCheck(ctx context.Context) error {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return nil
}

// GetSelf implements client.Client
func (m *MockClient) GetSelf(ctx context.Context) (client.AgentSelf, error) {
	if m.GetSelfFn != nil {
		return m.GetSelfFn(ctx)
	}
	return client.AgentSelf{ID: "mock-agent"}, nil
}

// UpdateSelf implements client.Client
func (m *MockClient) UpdateSelf(ctx context.Context, patch client.SelfPatch) error {
	m.mu.Lock()
	m.updateSelfCalls = append(m.updateSelfCalls, patch)
	m.mu.Unlock()

	if m.UpdateSelfFn != nil {
		return m.UpdateSelfFn(ctx, patch)
	}
	return nil
}

// GetTools implements client.Client
func (m *MockClient) GetTools(ctx context.Context) ([]client.ToolDescriptor, error) {
	if m.GetToolsFn != nil {
		return m.GetToolsFn(ctx)
	}
	return nil, nil
}

// GetJobs implements client.Client
func (m *MockClient) GetJobs(ctx context.Context) ([]*job.Job, error) {
	if m.GetJobsFn != nil {
		return m.GetJobsFn(ctx)
	}
	return nil, nil
}

// ReportJob implements client.Client
func (m *MockClient) ReportJob(ctx context.Context, jobID string, report job.Report) error {
	m.mu.Lock()
	m.reportJobCalls = append(m.reportJobCalls, ReportJobCall{JobID: jobID, Report: report})
	m.mu.Unlock()

	if m.ReportJobFn != nil {
		return m.ReportJobFn(ctx, jobID, report)
	}
	return nil
}
