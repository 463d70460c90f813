package writer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// execute carries out the tier decided by classify (and, for Tier 2,
// the LLM's or safe-default's arbitration decision) against the
// store, returning the Outcome the caller reports back up the chain.
func (w *Writer) execute(ctx context.Context, agentID, source string, c classification, decision arbitrationDecision) (Outcome, error) {
	switch c.tier {
	case tierSkip:
		return Outcome{Result: ResultSkipped}, nil

	case tierInsert:
		return w.insert(ctx, agentID, source, c.ext)

	case tierAutoReplace:
		return w.supersede(ctx, agentID, source, c, c.ext.Content, false)

	case tierNeedsLLM:
		if decision.Action == "keep" {
			return Outcome{Result: ResultSkipped}, nil
		}
		content := c.ext.Content
		if decision.Action == "merge" && decision.MergedContent != "" {
			content = decision.MergedContent
		}
		return w.supersede(ctx, agentID, source, c, content, true)

	default:
		return w.insert(ctx, agentID, source, c.ext)
	}
}

// insert is Tier 3: routes by importance (>=0.8 to core, otherwise
// working with a working-TTL expiry) and upserts the new vector.
func (w *Writer) insert(ctx context.Context, agentID, source string, ext Extraction) (Outcome, error) {
	spec := w.buildSpec(agentID, source, ext)

	m, err := w.store.InsertMemory(ctx, spec)
	if err != nil {
		return Outcome{}, fmt.Errorf("inserting memory: %w", err)
	}
	w.upsertVectorBestEffort(ctx, m.ID, ext.Content)
	return Outcome{Result: ResultInserted, Memory: m}, nil
}

// supersede executes step 7 of the four-tier matcher: in one
// transaction, insert the new memory and set the old memory's
// superseded_by, then upsert the new vector. withReasoning is true
// when an LLM arbitration decision (rather than the near-exact
// auto-replace tier) produced content.
func (w *Writer) supersede(ctx context.Context, agentID, source string, c classification, content string, withReasoning bool) (Outcome, error) {
	ext := c.ext
	ext.Content = content
	spec := w.buildSpec(agentID, source, ext)
	spec.Metadata = mergeSupersedeTrace(spec.Metadata, c.candidate.ID, withReasoning)

	var inserted *domain.Memory
	err := w.store.Transaction(ctx, func(tx store.Store) error {
		m, err := tx.InsertMemory(ctx, spec)
		if err != nil {
			return fmt.Errorf("inserting superseding memory: %w", err)
		}
		newID := m.ID
		if err := tx.UpdateMemory(ctx, c.candidate.ID, store.MemoryPatch{SupersededBy: &newID}); err != nil {
			return fmt.Errorf("marking old memory superseded: %w", err)
		}
		inserted = m
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	w.upsertVectorBestEffort(ctx, inserted.ID, content)

	if ext.Category == domain.CategoryCorrection {
		w.logAutoFeedback(ctx, agentID, c.candidate.Content, content)
	}
	return Outcome{Result: ResultSmartUpdated, Memory: inserted}, nil
}

// buildSpec turns an Extraction into the domain.Memory spec the store
// inserts, applying the importance-based layer routing shared by both
// plain inserts and supersedes.
func (w *Writer) buildSpec(agentID, source string, ext Extraction) *domain.Memory {
	layer := domain.LayerWorking
	var expiresAt *time.Time
	if ext.Importance >= 0.8 {
		layer = domain.LayerCore
	} else {
		t := time.Now().Add(w.workingTTL)
		expiresAt = &t
	}

	meta := ext.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	return &domain.Memory{
		AgentID:    agentID,
		Layer:      layer,
		Category:   ext.Category,
		Content:    ext.Content,
		Importance: ext.Importance,
		Confidence: ext.Confidence,
		DecayScore: 1.0,
		ExpiresAt:  expiresAt,
		Source:     source,
		Metadata:   meta,
	}
}

// upsertVectorBestEffort computes and stores the embedding for a
// freshly written memory. Per the store's failure semantics, a vector
// write failure is logged and swallowed: the memory row already
// exists and degrades to keyword-only search, never blocking writes.
func (w *Writer) upsertVectorBestEffort(ctx context.Context, id, content string) {
	if !w.embed.IsAvailable() {
		return
	}
	vec, err := w.embed.Embed(ctx, content)
	if err != nil {
		w.logger.Warn("embedding new memory failed, degrading to keyword-only", zap.String("memory_id", id), zap.Error(err))
		return
	}
	if err := w.store.VectorUpsert(ctx, id, vec); err != nil {
		w.logger.Warn("vector upsert failed, memory remains keyword-only", zap.String("memory_id", id), zap.Error(err))
	}
}

// logAutoFeedback records the correction trail as an audit extraction
// log, the only audit sink the data model defines, per spec §4.3 step
// 7's "{feedback: corrected, original, corrected}" record.
func (w *Writer) logAutoFeedback(ctx context.Context, agentID, original, corrected string) {
	l := &domain.ExtractionLog{
		AgentID:         agentID,
		Channel:         "auto_feedback",
		ExchangePreview: original,
		RawOutput:       corrected,
		SmartUpdated:    1,
	}
	if err := w.store.InsertExtractionLog(ctx, l); err != nil {
		w.logger.Warn("failed to record auto-feedback log", zap.Error(err))
	}
}

func mergeSupersedeTrace(meta map[string]any, supersedes string, llmArbitrated bool) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["supersedes"] = supersedes
	meta["llm_arbitrated"] = llmArbitrated
	return meta
}
