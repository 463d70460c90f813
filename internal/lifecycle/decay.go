package lifecycle

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/store"
)

// decay implements spec §4.6 step 1: decay_score = exp(-λ·ageDays) for
// every live memory, age measured since updated_at; pinned memories
// are clamped to 1.0 rather than decayed.
func (e *Engine) decay(ctx context.Context, agentID string, dryRun bool) int {
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, ExcludeSuperseded: true}, store.Sort{Field: "updated_at"}, e.batchPage())
	if err != nil {
		e.logger.Warn("decay pass: listing memories failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0
	}

	n := 0
	for _, m := range memories {
		newScore := 1.0
		if !m.IsPinned {
			ageDays := time.Since(m.UpdatedAt).Hours() / 24
			newScore = math.Exp(-e.cfg.DecayLambda * ageDays)
		}
		if floatsEqual(newScore, m.DecayScore) {
			continue
		}
		n++
		if dryRun {
			continue
		}
		if err := e.store.UpdateMemory(ctx, m.ID, store.MemoryPatch{DecayScore: &newScore}); err != nil {
			e.logger.Warn("decay pass: update failed", zap.String("memory_id", m.ID), zap.Error(err))
		}
	}
	return n
}

func floatsEqual(a, b float64) bool {
	const eps = 1e-6
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}
