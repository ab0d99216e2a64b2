package client

import (
	"encoding/json"
	"time"
)

// envelope is the outer response wrapper: payloads arrive under "data".
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// resource is one enveloped element: an identifier plus an "attributes"
// sub-object holding the element's fields.
type resource struct {
	ID         string          `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

// jobAttributes is the wire form of one job descriptor's attributes as
// returned by GET /jobs.
type jobAttributes struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Action      actionPayload `json:"action"`
	AgentID     string        `json:"agent_id"`
	CreatedAt   time.Time     `json:"created_at"`
	// Timeout is declared in whole seconds.
	Timeout int64 `json:"timeout,omitempty"`
}

// actionPayload is the wire form of a job's command.
type actionPayload struct {
	Program   string   `json:"program"`
	Arguments []string `json:"arguments"`
}

// AgentSelf is this agent's identity and metadata as held by the control
// plane, consumed at startup via GET /self.
type AgentSelf struct {
	ID         string     `json:"id"`
	Hostname   string     `json:"hostname,omitempty"`
	Platform   string     `json:"platform,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// SelfPatch is a partial-update document for PATCH /self. Nil fields are
// omitted and left untouched upstream.
type SelfPatch struct {
	Hostname     *string      `json:"hostname,omitempty"`
	Platform     *string      `json:"platform,omitempty"`
	LastSeenAt   *time.Time   `json:"last_seen_at,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// Capability advertises one probed tool: whether it is runnable on this host
// and, when known, which version answered.
type Capability struct {
	Program   string `json:"program"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// ToolDescriptor is one entry of GET /tools: a program the control plane
// may schedule, plus the argument that makes it print its version.
type ToolDescriptor struct {
	Program    string `json:"program"`
	VersionArg string `json:"version_arg,omitempty"`
}
