package sieve_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/sieve"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/sqlitestore"
	"github.com/cortexmemory/cortex/internal/writer"
)

func newTestSieve(t *testing.T, llm providers.LLMProvider) (*sieve.Sieve, store.Store) {
	t.Helper()
	s, err := sqlitestore.Open(context.Background(), ":memory:", false, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	embed := providers.NewMockEmbeddingProvider(64)
	w := writer.New(s, llm, embed, writer.Thresholds{ExactDupThreshold: 0.10, SimilarityThreshold: 0.25}, 48*time.Hour, zap.NewNop())
	cfg := config.Default().Sieve
	return sieve.New(s, w, llm, cfg, nil, zap.NewNop()), s
}

func TestIngest_FastChannelCapturesName(t *testing.T) {
	s, _ := newTestSieve(t, providers.NewMockLLMProvider())
	res, err := s.Ingest(context.Background(), sieve.IngestRequest{
		UserMessage:      "My name is Alex and I work at Acme Corp.",
		AssistantMessage: "Got it.",
		AgentID:          "agent-1",
		SessionID:        "sess-1",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(res.Extracted), 2)

	found := false
	for _, o := range res.Extracted {
		if o.Memory != nil && strings.Contains(o.Memory.Content, "Alex") {
			found = true
		}
	}
	assert.True(t, found, "expected a memory mentioning Alex")
}

func TestIngest_EmptyMessageSkipsEntirely(t *testing.T) {
	s, _ := newTestSieve(t, providers.NewMockLLMProvider())
	res, err := s.Ingest(context.Background(), sieve.IngestRequest{
		UserMessage:      "hi",
		AssistantMessage: "hello",
		AgentID:          "agent-1",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Extracted)
}

func TestIngest_DeepChannelStructuredExtraction(t *testing.T) {
	llm := providers.NewMockLLMProvider()
	llm.Respond = func(prompt string, opts providers.CompletionOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "extract durable facts"):
			return `{"memories": [
				{"category": "preference", "content": "User prefers Rust over Go.", "importance": 0.6, "confidence": 0.8},
				{"category": "project_state", "content": "User is working on project Zephyr.", "importance": 0.6, "confidence": 0.8}
			], "relations": [
				{"subject": "user", "predicate": "prefers", "object": "Rust", "confidence": 0.8}
			]}`, nil
		default:
			return `{}`, nil
		}
	}

	s, st := newTestSieve(t, llm)
	res, err := s.Ingest(context.Background(), sieve.IngestRequest{
		Messages: []sieve.Message{
			{Role: "user", Content: "I've been comparing languages for my new project."},
			{Role: "assistant", Content: "What have you found?"},
			{Role: "user", Content: "I prefer Rust over Go, working on project Zephyr."},
		},
		AgentID:   "agent-1",
		SessionID: "sess-1",
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Extracted), 2)

	rels, err := st.ListRelations(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "prefers", string(rels[0].Predicate))
}

func TestIngest_RepeatedIngestProducesNoNetNewMemories(t *testing.T) {
	s, _ := newTestSieve(t, providers.NewMockLLMProvider())
	req := sieve.IngestRequest{
		UserMessage:      "My name is Alex and I work at Acme Corp.",
		AssistantMessage: "Got it.",
		AgentID:          "agent-1",
		SessionID:        "sess-1",
	}

	first, err := s.Ingest(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first.Extracted)

	second, err := s.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.Deduplicated, 1)
}
