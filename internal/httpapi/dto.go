package httpapi

import (
	"time"

	"github.com/cortexmemory/cortex/internal/domain"
)

// memoryResponse is the wire shape for a domain.Memory, shared by
// /recall, /search, and the /memories CRUD handlers.
type memoryResponse struct {
	ID           string         `json:"id"`
	AgentID      string         `json:"agent_id"`
	Layer        string         `json:"layer"`
	Category     string         `json:"category"`
	Content      string         `json:"content"`
	Importance   float64        `json:"importance"`
	Confidence   float64        `json:"confidence"`
	DecayScore   float64        `json:"decay_score"`
	AccessCount  int64          `json:"access_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	IsPinned     bool           `json:"is_pinned"`
	Source       string         `json:"source"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func newMemoryResponse(m *domain.Memory) memoryResponse {
	if m == nil {
		return memoryResponse{}
	}
	return memoryResponse{
		ID: m.ID, AgentID: m.AgentID, Layer: string(m.Layer), Category: string(m.Category),
		Content: m.Content, Importance: m.Importance, Confidence: m.Confidence, DecayScore: m.DecayScore,
		AccessCount: m.AccessCount, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt, ExpiresAt: m.ExpiresAt,
		SupersededBy: m.SupersededBy, IsPinned: m.IsPinned, Source: m.Source, Metadata: m.Metadata,
	}
}

// relationResponse is the wire shape for a domain.Relation.
type relationResponse struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	Subject    string    `json:"subject"`
	Predicate  string    `json:"predicate"`
	Object     string    `json:"object"`
	Confidence float64   `json:"confidence"`
	Expired    bool      `json:"expired"`
	MemoryID   string    `json:"memory_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func newRelationResponse(r *domain.Relation) relationResponse {
	if r == nil {
		return relationResponse{}
	}
	return relationResponse{
		ID: r.ID, AgentID: r.AgentID, Subject: r.Subject, Predicate: string(r.Predicate),
		Object: r.Object, Confidence: r.Confidence, Expired: r.Expired, MemoryID: r.MemoryID, CreatedAt: r.CreatedAt,
	}
}

// agentResponse is the wire shape for a domain.Agent.
type agentResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Config    map[string]any `json:"config,omitempty"`
	Profile   string         `json:"profile,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newAgentResponse(a *domain.Agent) agentResponse {
	if a == nil {
		return agentResponse{}
	}
	return agentResponse{ID: a.ID, Name: a.Name, Config: a.Config, Profile: a.Profile, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}
