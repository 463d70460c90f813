package writer_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/sqlitestore"
	"github.com/cortexmemory/cortex/internal/writer"
)

func newTestWriter(t *testing.T) (*writer.Writer, store.Store) {
	t.Helper()
	s, err := sqlitestore.Open(context.Background(), ":memory:", false, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	llm := providers.NewMockLLMProvider()
	embed := providers.NewMockEmbeddingProvider(64)
	w := writer.New(s, llm, embed, writer.Thresholds{ExactDupThreshold: 0.10, SimilarityThreshold: 0.25}, 48*time.Hour, zap.NewNop())
	return w, s
}

func TestProcessNewMemory_InsertsFreshFact(t *testing.T) {
	w, _ := newTestWriter(t)
	out, err := w.ProcessNewMemory(context.Background(), "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryIdentity, Content: "User's name is Alex.", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, writer.ResultInserted, out.Result)
	require.NotNil(t, out.Memory)
	assert.Equal(t, domain.LayerCore, out.Memory.Layer)
}

func TestProcessNewMemory_LowImportanceGoesToWorking(t *testing.T) {
	w, _ := newTestWriter(t)
	out, err := w.ProcessNewMemory(context.Background(), "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryFact, Content: "User mentioned liking tea occasionally.", Importance: 0.3, Confidence: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, writer.ResultInserted, out.Result)
	assert.Equal(t, domain.LayerWorking, out.Memory.Layer)
	assert.NotNil(t, out.Memory.ExpiresAt)
}

func TestProcessNewMemory_ExactDuplicateSkipped(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()
	ext := writer.Extraction{Category: domain.CategoryIdentity, Content: "User's name is Alex.", Importance: 0.8, Confidence: 0.9}

	first, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", ext)
	require.NoError(t, err)
	require.Equal(t, writer.ResultInserted, first.Result)

	second, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", ext)
	require.NoError(t, err)
	assert.Equal(t, writer.ResultSkipped, second.Result)
}

func TestProcessNewMemory_NearExactAutoReplace(t *testing.T) {
	w, s := newTestWriter(t)
	ctx := context.Background()

	first, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryIdentity, Content: "User's name is Alexander and they work at Acme Corporation today", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	require.Equal(t, writer.ResultInserted, first.Result)

	second, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryCorrection, Content: "User's name is Alexander and they work at Acme Corp today", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, writer.ResultSmartUpdated, second.Result)

	original, err := s.GetMemory(ctx, first.Memory.ID)
	require.NoError(t, err)
	require.NotNil(t, original.SupersededBy)
	assert.Equal(t, second.Memory.ID, *original.SupersededBy)
	assert.False(t, original.Live())
}

func TestProcessNewMemory_AgentFamilyNeverSupersedesUser(t *testing.T) {
	w, s := newTestWriter(t)
	ctx := context.Background()

	userOut, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryIdentity, Content: "User's name is Alex.", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)

	agentOut, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryAgentPersona, Content: "User's name is Alex.", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, writer.ResultInserted, agentOut.Result)

	original, err := s.GetMemory(ctx, userOut.Memory.ID)
	require.NoError(t, err)
	assert.Nil(t, original.SupersededBy)
}

func TestProcessNewMemory_PinnedNeverSuperseded(t *testing.T) {
	w, s := newTestWriter(t)
	ctx := context.Background()

	out, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryIdentity, Content: "User's name is Alexander and they work at Acme Corporation today", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	pinned := true
	require.NoError(t, s.UpdateMemory(ctx, out.Memory.ID, store.MemoryPatch{IsPinned: &pinned}))

	second, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryCorrection, Content: "User's name is Alexander and they work at Acme Corp today", Importance: 0.8, Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, writer.ResultInserted, second.Result)

	original, err := s.GetMemory(ctx, out.Memory.ID)
	require.NoError(t, err)
	assert.Nil(t, original.SupersededBy)
}

func TestProcessNewMemoryBatch_Empty(t *testing.T) {
	w, _ := newTestWriter(t)
	out, err := w.ProcessNewMemoryBatch(context.Background(), "agent-1", "sess-1", "sieve", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessNewMemoryBatch_BatchedArbitration(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()

	first, err := w.ProcessNewMemory(ctx, "agent-1", "sess-1", "sieve", writer.Extraction{
		Category: domain.CategoryPreference, Content: "User likes dark roast coffee from the shop downtown every morning", Importance: 0.5, Confidence: 0.7,
	})
	require.NoError(t, err)
	require.Equal(t, writer.ResultInserted, first.Result)

	outs, err := w.ProcessNewMemoryBatch(ctx, "agent-1", "sess-1", "sieve", []writer.Extraction{
		{Category: domain.CategoryPreference, Content: "User likes dark roast coffee from the cafe downtown every morning", Importance: 0.5, Confidence: 0.7},
	})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Contains(t, []writer.Result{writer.ResultSmartUpdated, writer.ResultSkipped}, outs[0].Result)
}
