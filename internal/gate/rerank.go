package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/llmjson"
	"github.com/cortexmemory/cortex/internal/providers"
)

type rerankScore struct {
	Index     int     `json:"index"`
	Relevance float64 `json:"relevance"`
}

type rerankResponse struct {
	Scores []rerankScore `json:"scores"`
}

// rerank implements spec §4.5 step 7: the merged pool plus the
// original query go to the rerank model (here, the same extraction
// LLM with a rerank-shaped prompt), which returns a relevance score in
// [0,1] per candidate index. Final score blends rerank and original
// score by cfg.Reranker.Weight, defaulting to 0.5. Any failure to call
// or parse leaves scores unchanged and the pool re-sorted by original
// score, matching the documented degrade-gracefully behavior.
func (g *Gate) rerank(ctx context.Context, query string, scored []ScoredMemory) []ScoredMemory {
	if len(scored) == 0 || !g.llm.IsAvailable() {
		return scored
	}

	w := g.cfg.Reranker.Weight
	if w <= 0 {
		w = rerankDefaultWeight
	}

	prompt := buildRerankPrompt(query, scored)
	raw, err := g.llm.Complete(ctx, prompt, providers.CompletionOptions{Temperature: 0, MaxTokens: 500, Format: "json"})
	if err != nil {
		g.logger.Warn("reranker call failed, keeping original ranking", zap.Error(err))
		return scored
	}

	var resp rerankResponse
	if err := llmjson.Unmarshal([]byte(raw), &resp); err != nil {
		g.logger.Warn("reranker response unparseable, keeping original ranking", zap.Error(err))
		return scored
	}

	byIndex := make(map[int]float64, len(resp.Scores))
	for _, s := range resp.Scores {
		byIndex[s.Index] = clamp01(s.Relevance)
	}

	for i := range scored {
		rel, ok := byIndex[i]
		if !ok {
			continue
		}
		scored[i].Score = w*rel + (1-w)*scored[i].Score
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

func buildRerankPrompt(query string, scored []ScoredMemory) string {
	var b strings.Builder
	b.WriteString("Assign each candidate memory a relevance score in [0,1] for this query. ")
	b.WriteString("Respond with exactly {\"scores\": [{\"index\": N, \"relevance\": 0.0-1.0}, ...]}.\n\n")
	fmt.Fprintf(&b, "Query: %s\n\nCandidates:\n", query)
	for i, s := range scored {
		fmt.Fprintf(&b, "[%d] %s\n", i, s.Memory.Content)
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
