package gate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cortexmemory/cortex/internal/store"
)

// candidatePool accumulates every memory id surfaced by any variant's
// hybrid search, keyed by id, carrying the RRF score contributed by
// each variant plus how many distinct variants hit it.
type candidatePool map[string]*pooledCandidate

type pooledCandidate struct {
	id       string
	rrf      float64 // max RRF score across variants
	variants int
}

// searchVariants runs spec §4.5 step 4 for every query variant
// concurrently (errgroup fan-out, matching the teacher's per-request
// goroutine-pool idiom), then step 4's RRF fusion per variant and a
// cross-variant merge that tracks hit count for the later multi-hit
// boost.
func (g *Gate) searchVariants(ctx context.Context, agentID string, variants []string) (candidatePool, error) {
	const k = poolTargetSize

	type variantResult struct {
		fused map[string]float64
	}
	results := make([]variantResult, len(variants))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, q := range variants {
		i, q := i, q
		eg.Go(func() error {
			fused, err := g.hybridSearchOne(egCtx, agentID, q, k)
			if err != nil {
				return err
			}
			results[i] = variantResult{fused: fused}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("variant search: %w", err)
	}

	pool := candidatePool{}
	for _, r := range results {
		for id, score := range r.fused {
			c, ok := pool[id]
			if !ok {
				c = &pooledCandidate{id: id}
				pool[id] = c
			}
			if score > c.rrf {
				c.rrf = score
			}
			c.variants++
		}
	}
	return pool, nil
}

// hybridSearchOne runs one variant's BM25 keyword search and vector
// search, then fuses their rankings with reciprocal rank fusion (spec
// §4.5 step 4). A failing vector search degrades to keyword-only
// rather than failing the whole recall, matching spec §7's "Gate
// degrades to keyword-only search" UpstreamFailure handling.
func (g *Gate) hybridSearchOne(ctx context.Context, agentID, query string, k int) (map[string]float64, error) {
	fused := map[string]float64{}

	keywordHits, err := g.store.KeywordSearch(ctx, agentID, query, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	for rank, h := range keywordHits {
		fused[h.ID] += 1.0 / float64(rrfK+rank+1)
	}

	if g.embed.IsAvailable() {
		vec, err := g.embed.Embed(ctx, query)
		if err == nil {
			vecHits, err := g.store.VectorSearch(ctx, vec, k, store.Filter{AgentID: agentID})
			if err != nil {
				g.logger.Warn("vector search degraded to keyword-only", zap.Error(err))
			} else {
				for rank, h := range vecHits {
					fused[h.ID] += 1.0 / float64(rrfK+rank+1)
				}
			}
		} else {
			g.logger.Warn("query embedding failed, degrading to keyword-only", zap.Error(err))
		}
	}

	return fused, nil
}
