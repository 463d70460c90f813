package providers

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// MockLLMProvider is a deterministic stand-in for a real LLM,
// following the teacher's MockProvider: dispatch on prompt content
// rather than actually calling a model. It recognizes the prompt
// shapes the writer and sieve build (see internal/writer/arbitration.go,
// internal/sieve/extraction.go) and returns plausible structured JSON.
type MockLLMProvider struct {
	Available bool
	// Respond, if set, overrides the dispatch table entirely — tests
	// use this to script a specific completion for a specific call.
	Respond func(prompt string, options CompletionOptions) (string, error)
}

// NewMockLLMProvider returns an available mock provider.
func NewMockLLMProvider() *MockLLMProvider {
	return &MockLLMProvider{Available: true}
}

func (m *MockLLMProvider) IsAvailable() bool { return m.Available }

func (m *MockLLMProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if !m.Available {
		return "", errUnavailable
	}
	if m.Respond != nil {
		return m.Respond(prompt, options)
	}

	switch {
	case strings.Contains(prompt, "extract durable facts"):
		return `{"nothing_extracted": true}`, nil
	case strings.Contains(prompt, "action") && strings.Contains(prompt, "keep|replace|merge"):
		return `{"action": "replace", "reasoning": "mock default"}`, nil
	case strings.Contains(prompt, "decisions") && strings.Contains(prompt, "same length"):
		return `[]`, nil
	case strings.Contains(prompt, "synonym") || strings.Contains(prompt, "rephrasing"):
		return `{"variants": []}`, nil
	case strings.Contains(prompt, "relevance score") || strings.Contains(prompt, "rerank"):
		return `{"scores": []}`, nil
	case strings.Contains(prompt, "condense") || strings.Contains(prompt, "summary"):
		return "Summary of archived memories.", nil
	default:
		return `{}`, nil
	}
}

var errUnavailable = &mockError{"mock LLM provider is not available"}

type mockError struct{ msg string }

func (e *mockError) Error() string { return e.msg }

// MockEmbeddingProvider produces a deterministic vector from the
// input text's word hashes rather than calling a real embedding
// model. Cosine similarity between two mock embeddings tracks shared
// vocabulary, which is enough signal for dedup/recall tests to
// exercise real ranking behavior without a network call.
type MockEmbeddingProvider struct {
	Dims      int
	Available bool
}

// NewMockEmbeddingProvider returns an available provider with dims
// dimensions.
func NewMockEmbeddingProvider(dims int) *MockEmbeddingProvider {
	if dims <= 0 {
		dims = 256
	}
	return &MockEmbeddingProvider{Dims: dims, Available: true}
}

func (m *MockEmbeddingProvider) IsAvailable() bool { return m.Available }
func (m *MockEmbeddingProvider) Dimensions() int   { return m.Dims }

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if !m.Available {
		return nil, errUnavailable
	}
	vec := make([]float32, m.Dims)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return vec, nil
	}

	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		seed := h.Sum64()
		for i := 0; i < m.Dims; i++ {
			bucket := (seed + uint64(i)*2654435761) % uint64(m.Dims)
			sign := float32(1)
			if (seed>>uint(i%64))&1 == 1 {
				sign = -1
			}
			vec[bucket] += sign
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
