package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/writer"
)

// mergeDuplicates implements spec §4.6 step 3: scan core for
// near-duplicate pairs (vector distance < exactDupThreshold·1.5) and
// merge them via writer.MergeDuplicates, the bulk form of the same
// arbitration path the write-path four-tier matcher uses.
func (e *Engine) mergeDuplicates(ctx context.Context, agentID string, dryRun bool) int {
	if !e.embed.IsAvailable() {
		return 0
	}

	core := domain.LayerCore
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, Layer: &core, ExcludeSuperseded: true}, store.Sort{Field: "updated_at"}, e.batchPage())
	if err != nil {
		e.logger.Warn("merge pass: listing core memories failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0
	}

	threshold := e.dupThreshold()
	seen := map[string]bool{}
	var pairs []writer.DuplicatePair

	for _, m := range memories {
		if seen[m.ID] || m.IsPinned {
			continue
		}
		vec, err := e.embed.Embed(ctx, m.Content)
		if err != nil {
			continue
		}
		hits, err := e.store.VectorSearch(ctx, vec, 3, store.Filter{AgentID: agentID, Layer: &core})
		if err != nil {
			continue
		}
		for _, h := range hits {
			if h.ID == m.ID || seen[h.ID] || h.Score >= threshold {
				continue
			}
			dup, err := e.store.GetMemory(ctx, h.ID)
			if err != nil || dup == nil || !dup.Live() || dup.IsPinned {
				continue
			}
			if !domain.SameFamily(m.Category, dup.Category) {
				continue
			}
			pairs = append(pairs, writer.DuplicatePair{A: m, B: dup})
			seen[m.ID] = true
			seen[dup.ID] = true
			break
		}
	}

	if dryRun || len(pairs) == 0 {
		return len(pairs)
	}

	outcomes, err := e.writer.MergeDuplicates(ctx, agentID, "lifecycle_merge", pairs)
	if err != nil {
		e.logger.Warn("merge pass: bulk merge failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0
	}
	n := 0
	for _, o := range outcomes {
		if o.Memory != nil {
			n++
		}
	}
	return n
}

// dupThreshold mirrors the writer's exactDupThreshold·1.5 near-exact
// boundary (spec §4.6 step 3 reuses the same constant the four-tier
// matcher's Tier-2 uses).
func (e *Engine) dupThreshold() float64 {
	return e.exactDupThreshold * 1.5
}
