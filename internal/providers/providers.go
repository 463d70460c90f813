// Package providers abstracts the three external capability sets the
// core depends on but never implements for real: LLM completion,
// embedding, and a vector backend. Interface shape follows the
// teacher's internal/service/llm.Provider (Complete/IsAvailable with
// a CompletionOptions struct); only mock, deterministic
// implementations live here, since concrete provider wiring (API
// keys, HTTP clients, rate limits) is explicitly out of core scope.
package providers

import "context"

// CompletionOptions configures an LLM completion request.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
	Format      string // "json" or "text"
}

// LLMProvider is the capability set the Sieve's deep channel, the
// writer's arbitration step, the Gate's expansion/rerank steps, and
// the Lifecycle Engine's compression/profile-synthesis steps all
// depend on.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// EmbeddingProvider turns text into a fixed-dimension vector for the
// writer's dedup search and the Gate's hybrid retrieval.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	IsAvailable() bool
}

// VectorBackend is the capability set a vector index implements. The
// store's VectorUpsert/VectorSearch/VectorDelete methods cover the same
// three operations under Vector-prefixed names (VectorSearch also takes
// a store.Filter); no type in this module implements VectorBackend.
type VectorBackend interface {
	Upsert(ctx context.Context, id string, vec []float32) error
	Search(ctx context.Context, vec []float32, k int) ([]VectorHit, error)
	Delete(ctx context.Context, ids []string) error
}

// VectorHit is one scored candidate from a VectorBackend.Search call.
type VectorHit struct {
	ID       string
	Distance float64
}
