package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// archiveAgeFloor is the minimum age spec §4.6 step 4 requires before
// a core memory is eligible for archival, alongside the decay-score
// threshold. No config key names it, so it is fixed here rather than
// invented as an unused knob (recorded as an Open Question decision in
// DESIGN.md).
const archiveAgeFloor = 24 * time.Hour

// archive implements spec §4.6 step 4: core memories with
// decay_score < archiveThreshold and age ≥ archiveAgeFloor move to
// archive.
func (e *Engine) archive(ctx context.Context, agentID string, dryRun bool) int {
	core := domain.LayerCore
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, Layer: &core, ExcludeSuperseded: true}, store.Sort{Field: "decay_score"}, e.batchPage())
	if err != nil {
		e.logger.Warn("archive pass: listing core memories failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0
	}

	n := 0
	for _, m := range memories {
		if m.IsPinned {
			continue
		}
		if m.DecayScore >= e.cfg.ArchiveThreshold {
			continue
		}
		if time.Since(m.UpdatedAt) < archiveAgeFloor {
			continue
		}
		n++
		if dryRun {
			continue
		}
		archiveLayer := domain.LayerArchive
		if err := e.store.UpdateMemory(ctx, m.ID, store.MemoryPatch{Layer: &archiveLayer}); err != nil {
			e.logger.Warn("archive pass: update failed", zap.String("memory_id", m.ID), zap.Error(err))
		}
	}
	return n
}
