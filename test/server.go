package test

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/pkg/api/v1/client"
	"github.com/outpost-labs/outpost/pkg/api/v1/routes"
)

// JobSeed describes one job the fake control plane will hand to the agent.
type JobSeed struct {
	ID          string
	Name        string
	Description string
	Program     string
	Arguments   []string
	Timeout     time.Duration
}

// ControlPlane is an in-process fake of the backend API. It serves the
// agent-facing endpoints over a real HTTP server and records everything the
// agent sends back.
type ControlPlane struct {
	mu sync.Mutex

	agentID string
	queue   []JobSeed // jobs not yet handed out
	tools   []client.ToolDescriptor

	patches []client.SelfPatch
	reports map[string][]job.Report

	App    *fiber.App
	Server *httptest.Server
}

// NewControlPlane starts a fake control plane for the given agent identity.
func NewControlPlane(agentID string) *ControlPlane {
	cp := &ControlPlane{
		agentID: agentID,
		reports: make(map[string][]job.Report),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get(routes.HealthCheckURL(), cp.handleHealth)
	app.Get(routes.SelfURL(), cp.handleGetSelf)
	app.Patch(routes.SelfURL(), cp.handlePatchSelf)
	app.Get(routes.ToolsURL(), cp.handleGetTools)
	app.Get(routes.JobsURL(), cp.handleGetJobs)
	app.Patch(routes.APIv1Prefix+"/jobs/:id", cp.handlePatchJob)

	cp.App = app
	cp.Server = httptest.NewServer(adaptor.FiberApp(app))
	return cp
}

// Close shuts the HTTP server down.
func (cp *ControlPlane) Close() {
	cp.Server.Close()
}

// SeedJobs queues jobs to be returned by the next GET /jobs call. Each job
// is handed out exactly once.
func (cp *ControlPlane) SeedJobs(seeds ...JobSeed) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.queue = append(cp.queue, seeds...)
}

// SeedTools sets the tool list returned by GET /tools.
func (cp *ControlPlane) SeedTools(tools ...client.ToolDescriptor) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.tools = tools
}

// Patches returns every PATCH /self document received so far.
func (cp *ControlPlane) Patches() []client.SelfPatch {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	out := make([]client.SelfPatch, len(cp.patches))
	copy(out, cp.patches)
	return out
}

// Reports returns every outcome report received for the given job ID.
func (cp *ControlPlane) Reports(jobID string) []job.Report {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	out := make([]job.Report, len(cp.reports[jobID]))
	copy(out, cp.reports[jobID])
	return out
}

func (cp *ControlPlane) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func (cp *ControlPlane) handleGetSelf(c *fiber.Ctx) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"id": cp.agentID,
			"attributes": fiber.Map{
				"created_at": time.Now().UTC().Format(time.RFC3339),
			},
		},
	})
}

func (cp *ControlPlane) handlePatchSelf(c *fiber.Ctx) error {
	var patch client.SelfPatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	cp.mu.Lock()
	cp.patches = append(cp.patches, patch)
	cp.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}

func (cp *ControlPlane) handleGetTools(c *fiber.Ctx) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return c.JSON(fiber.Map{"data": cp.tools})
}

func (cp *ControlPlane) handleGetJobs(c *fiber.Ctx) error {
	cp.mu.Lock()
	seeds := cp.queue
	cp.queue = nil
	cp.mu.Unlock()

	data := make([]fiber.Map, 0, len(seeds))
	for _, s := range seeds {
		data = append(data, fiber.Map{
			"id": s.ID,
			"attributes": fiber.Map{
				"name":        s.Name,
				"description": s.Description,
				"action": fiber.Map{
					"program":   s.Program,
					"arguments": s.Arguments,
				},
				"agent_id":   cp.agentID,
				"created_at": time.Now().UTC().Format(time.RFC3339),
				"timeout":    int64(s.Timeout / time.Second),
			},
		})
	}

	return c.JSON(fiber.Map{"data": data})
}

func (cp *ControlPlane) handlePatchJob(c *fiber.Ctx) error {
	var report job.Report
	if err := json.Unmarshal(c.Body(), &report); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// Params strings are backed by fiber's reusable request buffer; copy
	// before using one as a map key that outlives the request.
	id := utils.CopyString(c.Params("id"))
	cp.mu.Lock()
	cp.reports[id] = append(cp.reports[id], report)
	cp.mu.Unlock()
	return c.SendStatus(fiber.StatusNoContent)
}
