// Package routes defines the control-plane endpoints the agent consumes.
package routes

import "fmt"

// API base configuration
const (
	// DefaultPort is the default port of the control plane API
	DefaultPort = "8080"
	// APIv1Prefix is the prefix for all API endpoints
	APIv1Prefix = "/api/v1"
)

// DefaultBaseURL is the default base URL for the control plane API
var DefaultBaseURL = fmt.Sprintf("http://localhost:%s", DefaultPort)

// HealthCheckURL returns the health check endpoint
func HealthCheckURL() string {
	return APIv1Prefix + "/health"
}

// SelfURL returns the endpoint for this agent's own identity. GET hydrates
// the agent, PATCH pushes partial updates (presence, capabilities).
func SelfURL() string {
	return APIv1Prefix + "/self"
}

// ToolsURL returns the endpoint listing the tools this agent should probe
func ToolsURL() string {
	return APIv1Prefix + "/tools"
}

// JobsURL returns the endpoint listing jobs assigned to this agent
func JobsURL() string {
	return APIv1Prefix + "/jobs"
}

// JobURL returns the endpoint for a single job, used to report its outcome
func JobURL(id string) string {
	return fmt.Sprintf("%s/jobs/%s", APIv1Prefix, id)
}
