package gate_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/gate"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/sqlitestore"
)

func newTestGate(t *testing.T) (*gate.Gate, store.Store, *providers.MockEmbeddingProvider) {
	t.Helper()
	s, err := sqlitestore.Open(context.Background(), ":memory:", false, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	embed := providers.NewMockEmbeddingProvider(64)
	llm := providers.NewMockLLMProvider()
	cfg := config.Default()
	g := gate.New(s, llm, embed, cfg.Gate, cfg.Search, nil, zap.NewNop())
	return g, s, embed
}

func seedMemory(t *testing.T, ctx context.Context, s store.Store, embed *providers.MockEmbeddingProvider, agentID string, cat domain.Category, content string) *domain.Memory {
	t.Helper()
	m, err := s.InsertMemory(ctx, &domain.Memory{
		AgentID: agentID, Layer: domain.LayerCore, Category: cat, Content: content,
		Importance: 0.7, Confidence: 0.8, DecayScore: 1.0, Source: "test",
	})
	require.NoError(t, err)
	vec, err := embed.Embed(ctx, content)
	require.NoError(t, err)
	require.NoError(t, s.VectorUpsert(ctx, m.ID, vec))
	return m
}

func TestRecall_FindsSeededMemoryByKeyword(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user's favorite programming language is Go.")
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user enjoys hiking on weekends.")

	resp, err := g.Recall(ctx, gate.Request{Query: "What programming language does the user like?", AgentID: "agent-1", MaxTokens: 500})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Context, "Go")
}

func TestRecall_SmallTalkReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user's favorite programming language is Go.")

	resp, err := g.Recall(ctx, gate.Request{Query: "hello there", AgentID: "agent-1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Context)
	assert.Empty(t, resp.Results)
}

func TestRecall_ConstraintAlwaysFirst(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user lives in Austin and likes Go programming.")
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryConstraint, "Never suggest Go programming tips without citing a source.")

	resp, err := g.Recall(ctx, gate.Request{Query: "Go programming", AgentID: "agent-1", MaxTokens: 2000})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, domain.CategoryConstraint, resp.Results[0].Memory.Category)
}

func TestRecall_InjectionIncrementsAccessCount(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	m := seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user's favorite programming language is Go.")

	_, err := g.Recall(ctx, gate.Request{Query: "favorite programming language", AgentID: "agent-1", MaxTokens: 2000})
	require.NoError(t, err)

	reloaded, err := s.GetMemory(ctx, m.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reloaded.AccessCount, int64(1))
}

func TestRecall_TokenBudgetLimitsInjection(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	for i := 0; i < 10; i++ {
		seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "The user's favorite programming language is Go and they build backend services.")
	}

	resp, err := g.Recall(ctx, gate.Request{Query: "favorite programming language", AgentID: "agent-1", MaxTokens: 20})
	require.NoError(t, err)
	assert.LessOrEqual(t, resp.Meta.InjectedCount, 1)
}

func TestRecall_AgentScoped(t *testing.T) {
	ctx := context.Background()
	g, s, embed := newTestGate(t)
	seedMemory(t, ctx, s, embed, "agent-1", domain.CategoryFact, "Agent one's user likes Go programming.")
	seedMemory(t, ctx, s, embed, "agent-2", domain.CategoryFact, "Agent two's user likes Go programming.")

	resp, err := g.Recall(ctx, gate.Request{Query: "Go programming", AgentID: "agent-1", MaxTokens: 2000})
	require.NoError(t, err)
	for _, r := range resp.Results {
		assert.Equal(t, "agent-1", r.Memory.AgentID)
	}
}
