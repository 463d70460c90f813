package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
)

// compress implements spec §4.6 step 5: archive entries older than the
// archive TTL are grouped by category and condensed by LLM into a
// single summary-category memory written back to core when
// compressBackToCore is set; otherwise those entries are deleted
// outright once past TTL.
func (e *Engine) compress(ctx context.Context, agentID string, dryRun bool) (compressed int, deleted int) {
	archiveLayer := domain.LayerArchive
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, Layer: &archiveLayer, ExcludeSuperseded: true}, store.Sort{Field: "updated_at"}, e.batchPage())
	if err != nil {
		e.logger.Warn("compression pass: listing archive memories failed", zap.String("agent_id", agentID), zap.Error(err))
		return 0, 0
	}

	groups := map[domain.Category][]*domain.Memory{}
	for _, m := range memories {
		if m.IsPinned || time.Since(m.UpdatedAt) < e.layers.Archive.TTL {
			continue
		}
		groups[m.Category] = append(groups[m.Category], m)
	}

	for cat, group := range groups {
		if len(group) == 0 {
			continue
		}
		if e.layers.Archive.CompressBackToCore {
			compressed += len(group)
			if dryRun {
				continue
			}
			e.condenseGroup(ctx, agentID, cat, group)
		} else {
			deleted += len(group)
			if dryRun {
				continue
			}
			for _, m := range group {
				if err := e.store.DeleteMemory(ctx, m.ID); err != nil {
					e.logger.Warn("compression pass: delete failed", zap.String("memory_id", m.ID), zap.Error(err))
				}
			}
		}
	}
	return compressed, deleted
}

func (e *Engine) condenseGroup(ctx context.Context, agentID string, cat domain.Category, group []*domain.Memory) {
	summary, err := e.llmCondense(ctx, cat, group)
	if err != nil {
		e.logger.Warn("compression pass: condense call failed, leaving entries archived", zap.Error(err))
		return
	}

	core := domain.LayerCore
	spec := &domain.Memory{
		AgentID: agentID, Layer: core, Category: domain.CategorySummary, Content: summary,
		Importance: 0.5, Confidence: 0.6, DecayScore: 1.0, Source: "lifecycle_compress",
		Metadata: map[string]any{"compressed_category": string(cat), "compressed_count": len(group)},
	}

	err = e.store.Transaction(ctx, func(tx store.Store) error {
		m, err := tx.InsertMemory(ctx, spec)
		if err != nil {
			return fmt.Errorf("inserting compressed summary: %w", err)
		}
		newID := m.ID
		for _, old := range group {
			if err := tx.UpdateMemory(ctx, old.ID, store.MemoryPatch{SupersededBy: &newID}); err != nil {
				return fmt.Errorf("superseding compressed entry %s: %w", old.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Warn("compression pass: writing summary failed", zap.Error(err))
	}
}

func (e *Engine) llmCondense(ctx context.Context, cat domain.Category, group []*domain.Memory) (string, error) {
	if !e.llm.IsAvailable() {
		return fallbackSummary(cat, group), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Condense these %d archived %q memories into one terse summary paragraph:\n", len(group), cat)
	for _, m := range group {
		b.WriteString("- ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	raw, err := e.llm.Complete(ctx, b.String(), providers.CompletionOptions{Temperature: 0.2, MaxTokens: 300, Format: "text"})
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallbackSummary(cat, group), nil
	}
	return raw, nil
}

func fallbackSummary(cat domain.Category, group []*domain.Memory) string {
	return fmt.Sprintf("Archived %s memories condensed: %d entries.", cat, len(group))
}
