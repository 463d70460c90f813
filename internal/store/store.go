// Package store defines the persistence contract shared by every
// Cortex subsystem: durable entity storage, full-text keyword search,
// and a content-addressed vector index. sqlitestore provides the one
// concrete implementation, grounded on an embedded relational file
// per spec.
package store

import (
	"context"
	"time"

	"github.com/cortexmemory/cortex/internal/domain"
)

// Filter narrows list/search/vector operations. AgentID is always
// required — every query in Cortex is agent-scoped.
type Filter struct {
	AgentID           string
	Layer             *domain.Layer
	Categories        []domain.Category
	ExcludeSuperseded bool
	PinnedOnly        bool
}

// Page bounds a list operation.
type Page struct {
	Offset int
	Limit  int
}

// Sort names the field and direction for list operations.
type Sort struct {
	Field      string
	Descending bool
}

// ScoredID is a ranked hit from keyword or vector search. For
// keyword hits Score is the FTS5 bm25() score (lower better); for vector
// hits Score is cosine distance (lower better) — callers distinguish
// by which method returned the slice.
type ScoredID struct {
	ID    string
	Score float64
}

// MemoryPatch carries only the fields UpdateMemory should change; nil
// fields are left untouched. UpdatedAt is always refreshed.
// ClearExpiresAt distinguishes "leave unchanged" from "set to null",
// since ExpiresAt itself being nil is ambiguous with "don't touch".
type MemoryPatch struct {
	Layer           *domain.Layer
	Category        *domain.Category
	Content         *string
	Importance      *float64
	Confidence      *float64
	DecayScore      *float64
	AccessCountIncr int64
	ExpiresAt       *time.Time
	ClearExpiresAt  bool
	SupersededBy    *string
	IsPinned        *bool
	Metadata        map[string]any
}

// Store is the full persistence contract from the data model section:
// entity CRUD, transactional multi-row updates, BM25 keyword search,
// and a vector index abstraction. Listing and search methods are
// agent-scoped; single-row methods operate by opaque id, and ListAgents
// spans all agents.
type Store interface {
	InsertMemory(ctx context.Context, spec *domain.Memory) (*domain.Memory, error)
	GetMemory(ctx context.Context, id string) (*domain.Memory, error)
	UpdateMemory(ctx context.Context, id string, patch MemoryPatch) error
	DeleteMemory(ctx context.Context, id string) error
	ListMemories(ctx context.Context, f Filter, s Sort, p Page) ([]*domain.Memory, error)

	// KeywordSearch runs BM25 over content, excluding superseded rows.
	KeywordSearch(ctx context.Context, agentID, query string, k int) ([]ScoredID, error)

	// VectorUpsert is content-addressed by memory id: re-upserting the
	// same id replaces its vector.
	VectorUpsert(ctx context.Context, id string, vec []float32) error
	// VectorSearch returns cosine distances, excluding superseded rows
	// and respecting f.AgentID. Pinned memories are not filtered out
	// here — pinned-exclusion for dedup is the writer's
	// responsibility, not the store's; the store only filters by
	// liveness and agent.
	VectorSearch(ctx context.Context, vec []float32, k int, f Filter) ([]ScoredID, error)
	VectorDelete(ctx context.Context, ids []string) error

	InsertRelation(ctx context.Context, r *domain.Relation) (*domain.Relation, error)
	ListRelations(ctx context.Context, agentID string) ([]*domain.Relation, error)
	ExpireRelation(ctx context.Context, id string) error

	InsertExtractionLog(ctx context.Context, l *domain.ExtractionLog) error

	UpsertAgent(ctx context.Context, a *domain.Agent) (*domain.Agent, error)
	GetAgent(ctx context.Context, id string) (*domain.Agent, error)
	ListAgents(ctx context.Context) ([]*domain.Agent, error)

	// Transaction runs fn against a Store bound to a single atomic unit
	// of work; multi-row writes (insert-new + supersede-old) use this
	// to satisfy the concurrency model's atomicity requirement.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
