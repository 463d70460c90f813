package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// promote implements spec §4.6 step 2: working memories with
// importance×confidence ≥ promotionThreshold and at least one access
// move to core, with expires_at cleared (core memories never expire
// on a timer, matching the invariant expires_at != nil iff layer ==
// working).
func (e *Engine) promote(ctx context.Context, agentID string, dryRun bool) int {
	working := domain.LayerWorking
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, Layer: &working, ExcludeSuperseded: true}, store.Sort{Field: "updated_at"}, e.batchPage())
	if err != nil {
		e.logger.Warn("promotion pass: listing memories failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0
	}

	n := 0
	for _, m := range memories {
		if m.AccessCount < 1 {
			continue
		}
		if m.Importance*m.Confidence < e.cfg.PromotionThreshold {
			continue
		}
		n++
		if dryRun {
			continue
		}
		core := domain.LayerCore
		if err := e.store.UpdateMemory(ctx, m.ID, store.MemoryPatch{Layer: &core, ClearExpiresAt: true}); err != nil {
			e.logger.Warn("promotion pass: update failed", zap.String("memory_id", m.ID), zap.Error(err))
		}
	}
	return n
}
