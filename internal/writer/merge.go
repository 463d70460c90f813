package writer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// DuplicatePair is two already-stored, live memories the Lifecycle
// Engine's merge pass has found within exactDupThreshold*1.5 of each
// other (spec §4.6 step 3). A is conventionally the older of the two.
type DuplicatePair struct {
	A *domain.Memory
	B *domain.Memory
}

// MergeDuplicates runs the same LLM-arbitrated consolidation the
// four-tier matcher's Tier-2/3 path uses, but in bulk over pairs of
// already-existing memories rather than a new extraction against a
// candidate: one batched arbitration call decides each pair's
// consolidated content, then both originals are superseded by a single
// new merged row. Grounded on the four-tier matcher's "one batched
// arbitration call per ingest" shape (spec §4.3), reused here for spec
// §4.6 step 3's "merge via the same writer arbitration path, but in
// bulk" requirement.
func (w *Writer) MergeDuplicates(ctx context.Context, agentID, source string, pairs []DuplicatePair) ([]Outcome, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	classes := make([]classification, len(pairs))
	needsLLM := make([]int, len(pairs))
	for i, p := range pairs {
		classes[i] = classification{
			ext:       Extraction{Category: p.B.Category, Content: p.B.Content, Importance: p.B.Importance, Confidence: p.B.Confidence},
			candidate: p.A,
			tier:      tierNeedsLLM,
		}
		needsLLM[i] = i
	}

	decisions := w.arbitrateBatch(ctx, classes, needsLLM)

	outcomes := make([]Outcome, len(pairs))
	for i, p := range pairs {
		d := decisions[i]
		content := p.A.Content
		if d.Action == "merge" && d.MergedContent != "" {
			content = d.MergedContent
		} else if d.Action == "replace" {
			content = p.B.Content
		}

		spec := &domain.Memory{
			AgentID: agentID, Layer: p.A.Layer, Category: p.A.Category, Content: content,
			Importance: maxFloat(p.A.Importance, p.B.Importance),
			Confidence: maxFloat(p.A.Confidence, p.B.Confidence),
			DecayScore: maxFloat(p.A.DecayScore, p.B.DecayScore),
			Source:     source,
			Metadata:   map[string]any{"merged_from": []string{p.A.ID, p.B.ID}},
		}

		var inserted *domain.Memory
		err := w.store.Transaction(ctx, func(tx store.Store) error {
			m, err := tx.InsertMemory(ctx, spec)
			if err != nil {
				return fmt.Errorf("inserting merged memory: %w", err)
			}
			newID := m.ID
			if err := tx.UpdateMemory(ctx, p.A.ID, store.MemoryPatch{SupersededBy: &newID}); err != nil {
				return fmt.Errorf("superseding merge source A: %w", err)
			}
			if err := tx.UpdateMemory(ctx, p.B.ID, store.MemoryPatch{SupersededBy: &newID}); err != nil {
				return fmt.Errorf("superseding merge source B: %w", err)
			}
			inserted = m
			return nil
		})
		if err != nil {
			w.logger.Warn("bulk merge failed for pair, leaving both live", zap.String("a", p.A.ID), zap.String("b", p.B.ID), zap.Error(err))
			continue
		}

		w.upsertVectorBestEffort(ctx, inserted.ID, content)
		outcomes[i] = Outcome{Result: ResultSmartUpdated, Memory: inserted}
	}
	return outcomes, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
