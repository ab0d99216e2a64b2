// Package test provides the integration test harness: a fake control plane
// served over HTTP and a fully wired agent pointed at it.
package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/outpost-labs/outpost/internal/agent"
	"github.com/outpost-labs/outpost/internal/config"
	"github.com/outpost-labs/outpost/pkg/api/v1/client"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// Suite bundles a fake control plane, a real API client talking to it over
// HTTP, and an agent wired to both.
type Suite struct {
	ControlPlane *ControlPlane
	APIClient    client.Client
	Agent        *agent.Agent
}

// NewSuite builds the full harness. Cleanup is registered on t.
func NewSuite(t *testing.T, agentID string) *Suite {
	t.Helper()

	cp := NewControlPlane(agentID)
	t.Cleanup(cp.Close)

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: cp.Server.URL,
		Timeout: testClientTimeout,
	})
	require.NoError(t, err, "Failed to create API client")

	cfg := &config.Config{
		ServerAddress: cp.Server.URL,
		PollInterval:  100 * time.Millisecond,
		HeartbeatSpec: "@every 1h",
	}

	a := agent.New(apiClient, cfg)
	t.Cleanup(a.Stop)

	return &Suite{
		ControlPlane: cp,
		APIClient:    apiClient,
		Agent:        a,
	}
}
