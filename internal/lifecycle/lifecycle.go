// Package lifecycle is the scheduled reshaper: decay recomputation,
// promotion, bulk near-duplicate merging, archival, compression, and
// per-agent profile synthesis, run in that order on a cron schedule or
// on demand via Run. Grounded on the teacher's
// internal/service/memory batch-processing idiom (one service method
// per maintenance concern, all sharing the store/writer collaborators),
// generalized from its single maintenance job to the six-step pass
// spec §4.6 describes.
package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/writer"
)

// Report summarizes one pass's effects, returned whether or not it
// was a dry run (spec §4.6's "dry_run ... returning a preview").
type Report struct {
	DryRun               bool
	AgentsProcessed      int
	Decayed              int
	Promoted             int
	Merged               int
	Archived             int
	Compressed           int
	Deleted              int
	ProfilesSynthesized  int
}

// Engine is the lifecycle reshaper's dependency set. exactDupThreshold
// mirrors config.Sieve.ExactDupThreshold — step 3's near-duplicate
// scan reuses the write path's own dedup boundary (spec §4.6 step 3)
// rather than carrying an independent, driftable copy in
// config.Lifecycle.
type Engine struct {
	store             store.Store
	writer            *writer.Writer
	llm               providers.LLMProvider
	embed             providers.EmbeddingProvider
	cfg               config.Lifecycle
	layers            config.Layers
	exactDupThreshold float64
	logger            *zap.Logger
}

// New builds an Engine.
func New(s store.Store, w *writer.Writer, llm providers.LLMProvider, embed providers.EmbeddingProvider, cfg config.Lifecycle, layers config.Layers, exactDupThreshold float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: s, writer: w, llm: llm, embed: embed, cfg: cfg, layers: layers, exactDupThreshold: exactDupThreshold, logger: logger}
}

// Run implements spec §4.6 steps 1-6, once per known agent, each step
// capped at cfg.MaxBatchPerTick rows. dryRun performs all reads and
// decisions but issues no writes.
func (e *Engine) Run(ctx context.Context, dryRun bool) (Report, error) {
	agents, err := e.store.ListAgents(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{DryRun: dryRun}
	for _, a := range agents {
		e.runAgent(ctx, a.ID, dryRun, &report)
		report.AgentsProcessed++
	}
	return report, nil
}

func (e *Engine) runAgent(ctx context.Context, agentID string, dryRun bool, report *Report) {
	report.Decayed += e.decay(ctx, agentID, dryRun)
	report.Promoted += e.promote(ctx, agentID, dryRun)
	report.Merged += e.mergeDuplicates(ctx, agentID, dryRun)
	report.Archived += e.archive(ctx, agentID, dryRun)

	compressed, deleted := e.compress(ctx, agentID, dryRun)
	report.Compressed += compressed
	report.Deleted += deleted

	if e.synthesizeProfile(ctx, agentID, dryRun) {
		report.ProfilesSynthesized++
	}
}

func (e *Engine) batchPage() store.Page {
	return store.Page{Limit: e.cfg.MaxBatchPerTick}
}
