// Package writer is the single choke-point for every memory write in
// the system. It runs the four-tier matcher against the vector index,
// optionally invokes LLM arbitration (batched), and emits new rows and
// supersede links. Grounded on the teacher's
// internal/service/memory.Service as the "one service owns all
// mutating operations" idiom, generalized from its CRUD+optimistic-
// retry shape to the four-tier dedup algorithm.
package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
)

// Result classifies what a single write became, matching the three
// outcomes the ingest API reports back to callers.
type Result string

const (
	ResultInserted     Result = "inserted"
	ResultSkipped      Result = "skipped"
	ResultSmartUpdated Result = "smart_updated"
)

// Extraction is a candidate fact offered to the writer, either from
// the fast regex channel or the deep LLM channel.
type Extraction struct {
	Category   domain.Category
	Content    string
	Importance float64
	Confidence float64
	Metadata   map[string]any
}

// Outcome is the writer's verdict for one Extraction.
type Outcome struct {
	Result Result
	Memory *domain.Memory
}

// Thresholds mirrors config.Sieve's dedup knobs so the writer package
// does not import internal/config (kept dependency-light and
// testable with literal values).
type Thresholds struct {
	ExactDupThreshold   float64
	SimilarityThreshold float64
}

// Writer is the writer's dependency set: store for persistence and
// dedup candidate search, LLM for arbitration, embedding for the
// dedup vector.
type Writer struct {
	store  store.Store
	llm    providers.LLMProvider
	embed  providers.EmbeddingProvider
	thr    Thresholds
	workingTTL time.Duration
	logger *zap.Logger
}

// New builds a Writer.
func New(s store.Store, llm providers.LLMProvider, embed providers.EmbeddingProvider, thr Thresholds, workingTTL time.Duration, logger *zap.Logger) *Writer {
	return &Writer{store: s, llm: llm, embed: embed, thr: thr, workingTTL: workingTTL, logger: logger}
}

// correctionCandidateCategories restricts dedup candidates for a
// correction extraction to the fact-like user categories a correction
// could plausibly be fixing.
var correctionCandidateCategories = []domain.Category{
	domain.CategoryIdentity, domain.CategoryFact, domain.CategoryPreference,
	domain.CategoryEntity, domain.CategoryRelationship, domain.CategoryProjectState,
}

// ProcessNewMemory runs the four-tier matcher for a single extraction.
// sourcePrefix is combined with sessionID into the stored source tag
// (e.g. "session:<sid>").
func (w *Writer) ProcessNewMemory(ctx context.Context, agentID, sessionID, sourcePrefix string, ext Extraction) (Outcome, error) {
	outcomes, err := w.ProcessNewMemoryBatch(ctx, agentID, sessionID, sourcePrefix, []Extraction{ext})
	if err != nil {
		return Outcome{}, err
	}
	return outcomes[0], nil
}

// classification is the batch path's per-extraction routing decision
// before any LLM call is made.
type classification struct {
	ext       Extraction
	candidate *domain.Memory
	distance  float64
	tier      tier
}

type tier int

const (
	tierInsert tier = iota
	tierSkip
	tierAutoReplace
	tierNeedsLLM
)

// ProcessNewMemoryBatch classifies every extraction's nearest same-
// family candidate in parallel (vector search is the only suspension
// point per extraction), then issues at most one batched LLM
// arbitration call for every pair that needs it.
func (w *Writer) ProcessNewMemoryBatch(ctx context.Context, agentID, sessionID, sourcePrefix string, exts []Extraction) ([]Outcome, error) {
	if len(exts) == 0 {
		return nil, nil
	}

	// Step (1) of the batch path runs every extraction's vector search
	// concurrently — it is the only suspension point per extraction,
	// and a deep-channel ingest routinely carries several of them.
	classes := make([]classification, len(exts))
	var wg sync.WaitGroup
	for i, ext := range exts {
		wg.Add(1)
		go func(i int, ext Extraction) {
			defer wg.Done()
			c, err := w.classify(ctx, agentID, ext)
			if err != nil {
				w.logger.Warn("dedup classification failed, defaulting to insert", zap.Error(err))
				c = classification{ext: ext, tier: tierInsert}
			}
			classes[i] = c
		}(i, ext)
	}
	wg.Wait()

	decisions := make([]arbitrationDecision, len(classes))
	var needsLLM []int
	for i, c := range classes {
		if c.tier == tierNeedsLLM {
			needsLLM = append(needsLLM, i)
		}
	}
	if len(needsLLM) > 0 {
		results := w.arbitrateBatch(ctx, classes, needsLLM)
		for idx, i := range needsLLM {
			decisions[i] = results[idx]
		}
	}

	source := sourcePrefix
	if sessionID != "" {
		source = fmt.Sprintf("%s:%s", sourcePrefix, sessionID)
	}

	outcomes := make([]Outcome, len(classes))
	for i, c := range classes {
		outcome, err := w.execute(ctx, agentID, source, c, decisions[i])
		if err != nil {
			w.logger.Warn("writer execute failed for extraction, skipping", zap.Error(err))
			outcomes[i] = Outcome{Result: ResultSkipped}
			continue
		}
		outcomes[i] = outcome
	}
	return outcomes, nil
}

// classify runs step 1-3 of the four-tier matcher: embed, search, and
// bucket the extraction into a tier given its closest same-family
// live candidate.
func (w *Writer) classify(ctx context.Context, agentID string, ext Extraction) (classification, error) {
	if !w.embed.IsAvailable() {
		return classification{ext: ext, tier: tierInsert}, nil
	}
	vec, err := w.embed.Embed(ctx, ext.Content)
	if err != nil {
		return classification{}, cortexerrors.NewUpstream("embedding extraction content", err)
	}

	topK := 3
	var categories []domain.Category
	if ext.Category == domain.CategoryCorrection {
		topK = 10
		categories = correctionCandidateCategories
	}

	hits, err := w.store.VectorSearch(ctx, vec, topK, store.Filter{
		AgentID:    agentID,
		Categories: categories,
	})
	if err != nil {
		return classification{ext: ext, tier: tierInsert, distance: 1}, nil
	}

	candidate, distance, err := w.closestSameFamily(ctx, ext.Category, hits)
	if err != nil {
		return classification{}, err
	}
	if candidate == nil {
		return classification{ext: ext, tier: tierInsert}, nil
	}

	dupT := w.thr.ExactDupThreshold
	simT := w.thr.SimilarityThreshold
	if ext.Category == domain.CategoryCorrection {
		simT = min(simT*1.5, 0.6)
	}

	c := classification{ext: ext, candidate: candidate, distance: distance}
	switch {
	case distance < dupT:
		c.tier = tierSkip
	case distance < dupT*1.5:
		c.tier = tierAutoReplace
	case distance < simT:
		c.tier = tierNeedsLLM
	default:
		c.tier = tierInsert
	}
	return c, nil
}

// closestSameFamily walks vector hits in distance order and returns
// the first live, non-pinned candidate whose category shares a family
// with target. Pinned memories are never arbitration candidates or
// supersede targets.
func (w *Writer) closestSameFamily(ctx context.Context, target domain.Category, hits []store.ScoredID) (*domain.Memory, float64, error) {
	for _, h := range hits {
		m, err := w.store.GetMemory(ctx, h.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("loading dedup candidate: %w", err)
		}
		if m == nil || !m.Live() || m.IsPinned {
			continue
		}
		if !domain.SameFamily(target, m.Category) {
			continue
		}
		return m, h.Score, nil
	}
	return nil, 0, nil
}
