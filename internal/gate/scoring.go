package gate

import (
	"context"
	"math"
	"sort"

	"github.com/cortexmemory/cortex/internal/domain"
)

// scoreAndMerge implements spec §4.5 steps 5-6: post-fusion scoring
// per candidate, then cross-variant merge keeping the max base score
// and applying a diminishing-returns multi-hit boost.
func (g *Gate) scoreAndMerge(ctx context.Context, pool candidatePool) ([]ScoredMemory, error) {
	out := make([]ScoredMemory, 0, len(pool))
	for id, c := range pool {
		m, err := g.store.GetMemory(ctx, id)
		if err != nil || m == nil || !m.Live() {
			continue
		}

		base := c.rrf * layerWeight(m.Layer) * recencyBoost(m.UpdatedAt, g.search.RecencyBoostWindow) * accessBoost(m.AccessCount)
		score := base
		if c.variants >= 2 {
			score *= 1 + 0.08*math.Log(float64(c.variants))
		}

		out = append(out, ScoredMemory{Memory: m, Score: score, VariantHit: c.variants})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// prioritize implements spec §4.5 step 8: sort by final score
// descending, but always place constraint/agent_persona memories
// first (in score order within that priority group).
func prioritize(scored []ScoredMemory) []ScoredMemory {
	priority := make([]ScoredMemory, 0, len(scored))
	rest := make([]ScoredMemory, 0, len(scored))
	for _, s := range scored {
		if s.Memory.Category == domain.CategoryConstraint || s.Memory.Category == domain.CategoryAgentPersona {
			priority = append(priority, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(priority, rest...)
}
