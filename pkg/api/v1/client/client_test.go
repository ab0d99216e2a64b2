package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/pkg/api/v1/routes"
)

// testBackend is a minimal in-process control plane for client tests.
type testBackend struct {
	mu          sync.Mutex
	selfPatches []SelfPatch
	reports     map[string]job.Report
	authHeaders []string

	server *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()

	b := &testBackend{reports: make(map[string]job.Report)}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get(routes.HealthCheckURL(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Get(routes.SelfURL(), func(c *fiber.Ctx) error {
		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, c.Get("Authorization"))
		b.mu.Unlock()
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"id": "agent-1",
				"attributes": fiber.Map{
					"hostname":   "node-a",
					"platform":   "linux",
					"created_at": "2026-01-10T08:00:00Z",
				},
			},
		})
	})

	app.Patch(routes.SelfURL(), func(c *fiber.Ctx) error {
		var patch SelfPatch
		if err := json.Unmarshal(c.Body(), &patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b.mu.Lock()
		b.selfPatches = append(b.selfPatches, patch)
		b.mu.Unlock()
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get(routes.ToolsURL(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": []fiber.Map{
				{"program": "echo", "version_arg": "--version"},
				{"program": "git"},
			},
		})
	})

	app.Get(routes.JobsURL(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"data": []fiber.Map{
				{
					"id": "job-1",
					"attributes": fiber.Map{
						"name":        "say hello",
						"description": "prints hello",
						"action": fiber.Map{
							"program":   "echo",
							"arguments": []string{"hello"},
						},
						"agent_id":   "agent-1",
						"created_at": "2026-01-10T09:30:00Z",
						"timeout":    60,
					},
				},
			},
		})
	})

	app.Patch(routes.APIv1Prefix+"/jobs/:id", func(c *fiber.Ctx) error {
		var report job.Report
		if err := json.Unmarshal(c.Body(), &report); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		b.mu.Lock()
		b.reports[c.Params("id")] = report
		b.mu.Unlock()
		return c.SendStatus(fiber.StatusNoContent)
	})

	b.server = httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(b.server.Close)
	return b
}

func newTestClient(t *testing.T, backend *testBackend) Client {
	t.Helper()

	c, err := NewClient(&Options{
		BaseURL:   backend.server.URL,
		AuthToken: "secret-token",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientInvalidOptions(t *testing.T) {
	_, err := NewClient(&Options{BaseURL: ""})
	assert.Error(t, err)

	c, err := NewClient(nil)
	require.NoError(t, err, "nil options fall back to defaults")
	assert.NotNil(t, c)
}

func TestHealthCheck(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestGetSelf(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	self, err := c.GetSelf(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "agent-1", self.ID)
	assert.Equal(t, "node-a", self.Hostname)
	assert.Equal(t, "linux", self.Platform)
	require.NotNil(t, self.CreatedAt)
	assert.Equal(t, 2026, self.CreatedAt.Year())

	require.NotEmpty(t, backend.authHeaders)
	assert.Equal(t, "Bearer secret-token", backend.authHeaders[0])
}

func TestUpdateSelf(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	hostname := "node-b"
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	err := c.UpdateSelf(context.Background(), SelfPatch{
		Hostname:   &hostname,
		LastSeenAt: &now,
	})
	require.NoError(t, err)

	require.Len(t, backend.selfPatches, 1)
	patch := backend.selfPatches[0]
	require.NotNil(t, patch.Hostname)
	assert.Equal(t, "node-b", *patch.Hostname)
	require.NotNil(t, patch.LastSeenAt)
	assert.True(t, patch.LastSeenAt.Equal(now))
	assert.Nil(t, patch.Platform, "omitted fields stay nil")
}

func TestGetTools(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	tools, err := c.GetTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "echo", tools[0].Program)
	assert.Equal(t, "--version", tools[0].VersionArg)
	assert.Empty(t, tools[1].VersionArg)
}

func TestGetJobs(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	jobs, err := c.GetJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "job-1", j.ID())
	assert.Equal(t, "say hello", j.Name())
	assert.Equal(t, "echo", j.Action().Program)
	assert.Equal(t, []string{"hello"}, j.Action().Arguments)
	assert.Equal(t, "agent-1", j.AgentID())
	assert.Equal(t, 60*time.Second, j.Timeout())
	assert.Equal(t, job.StatusPending, j.Status())
}

func TestReportJob(t *testing.T) {
	backend := newTestBackend(t)
	c := newTestClient(t, backend)

	started := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	completed := started.Add(3 * time.Second)
	results := "hello\n"
	success := true

	err := c.ReportJob(context.Background(), "job-1", job.Report{
		StartedAt:   &started,
		CompletedAt: &completed,
		Results:     &results,
		Success:     &success,
	})
	require.NoError(t, err)

	report, ok := backend.reports["job-1"]
	require.True(t, ok)
	require.NotNil(t, report.Results)
	assert.Equal(t, "hello\n", *report.Results)
	require.NotNil(t, report.Success)
	assert.True(t, *report.Success)
	assert.True(t, report.StartedAt.Equal(started))
	assert.True(t, report.CompletedAt.Equal(completed))
}

func TestClientSurfacesServerErrors(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get(routes.JobsURL(), func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "backend exploded")
	})
	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)

	c, err := NewClient(&Options{BaseURL: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.GetJobs(context.Background())
	require.Error(t, err)

	var fiberErr *fiber.Error
	require.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusInternalServerError, fiberErr.Code)
}
