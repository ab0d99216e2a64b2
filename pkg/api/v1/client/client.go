// Package client provides the API client the agent uses to talk to the
// control plane. It unwraps the response envelopes so the rest of the agent
// only ever sees normalized structures.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/outpost-labs/outpost/internal/job"
	"github.com/outpost-labs/outpost/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for the control-plane API client
type Client interface {
	// HealthCheck probes the control plane's health endpoint
	HealthCheck(ctx context.Context) error

	// GetSelf fetches this agent's identity, consumed at startup
	GetSelf(ctx context.Context) (AgentSelf, error)

	// UpdateSelf pushes a partial update: presence heartbeat, hostname,
	// platform or capability list
	UpdateSelf(ctx context.Context, patch SelfPatch) error

	// GetTools lists the tools this agent should probe for capabilities
	GetTools(ctx context.Context) ([]ToolDescriptor, error)

	// GetJobs lists the job descriptors currently assigned to this agent
	GetJobs(ctx context.Context) ([]*job.Job, error)

	// ReportJob reports one job's outcome
	ReportJob(ctx context.Context, jobID string, report job.Report) error
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the control plane API
	BaseURL string

	// AuthToken authenticates the agent; sent as a bearer token
	AuthToken string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL   string
	authToken string
	timeout   time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL:   opts.BaseURL,
		authToken: opts.AuthToken,
		timeout:   timeout,
	}, nil
}

// createAgent creates a new fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPatch:
		agent = fiber.Patch(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")
	if c.authToken != "" {
		agent.Set("Authorization", "Bearer "+c.authToken)
	}

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and returns the raw response body
func (c *APIClient) doRequest(agent *fiber.Agent) ([]byte, error) {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		return nil, &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	return body, nil
}

// executeRequest creates an agent, sends the request and unwraps the "data"
// envelope into v when a target is provided.
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, v interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	respBody, err := c.doRequest(agent)
	if err != nil {
		return err
	}

	if v == nil || len(respBody) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("error decoding response envelope: %w", err)
	}

	payload := env.Data
	if payload == nil {
		// Some endpoints answer without the envelope.
		payload = respBody
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}

// HealthCheck probes the control plane's health endpoint
func (c *APIClient) HealthCheck(ctx context.Context) error {
	return c.executeRequest(ctx, http.MethodGet, routes.HealthCheckURL(), nil, nil)
}

// GetSelf fetches this agent's identity from GET /self
func (c *APIClient) GetSelf(ctx context.Context) (AgentSelf, error) {
	var res resource
	if err := c.executeRequest(ctx, http.MethodGet, routes.SelfURL(), nil, &res); err != nil {
		return AgentSelf{}, err
	}

	self := AgentSelf{ID: res.ID}
	if len(res.Attributes) > 0 {
		if err := json.Unmarshal(res.Attributes, &self); err != nil {
			return AgentSelf{}, fmt.Errorf("error decoding agent attributes: %w", err)
		}
		self.ID = res.ID
	}
	return self, nil
}

// UpdateSelf pushes a partial update document via PATCH /self
func (c *APIClient) UpdateSelf(ctx context.Context, patch SelfPatch) error {
	return c.executeRequest(ctx, http.MethodPatch, routes.SelfURL(), patch, nil)
}

// GetTools lists the tool descriptors from GET /tools
func (c *APIClient) GetTools(ctx context.Context) ([]ToolDescriptor, error) {
	var tools []ToolDescriptor
	if err := c.executeRequest(ctx, http.MethodGet, routes.ToolsURL(), nil, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// GetJobs lists the jobs assigned to this agent from GET /jobs and converts
// the unwrapped descriptors into job handles ready for the store.
func (c *APIClient) GetJobs(ctx context.Context) ([]*job.Job, error) {
	var resources []resource
	if err := c.executeRequest(ctx, http.MethodGet, routes.JobsURL(), nil, &resources); err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, 0, len(resources))
	for _, res := range resources {
		var attrs jobAttributes
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("error decoding job %s: %w", res.ID, err)
		}

		jobs = append(jobs, job.New(job.Definition{
			ID:          res.ID,
			Name:        attrs.Name,
			Description: attrs.Description,
			Action:      job.NewAction(attrs.Action.Program, attrs.Action.Arguments...),
			AgentID:     attrs.AgentID,
			CreatedAt:   attrs.CreatedAt,
			Timeout:     time.Duration(attrs.Timeout) * time.Second,
		}))
	}
	return jobs, nil
}

// ReportJob reports one job's outcome via PATCH /jobs/{id}
func (c *APIClient) ReportJob(ctx context.Context, jobID string, report job.Report) error {
	return c.executeRequest(ctx, http.MethodPatch, routes.JobURL(jobID), report, nil)
}
