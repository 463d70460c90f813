package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/llmjson"
	"github.com/cortexmemory/cortex/internal/providers"
)

// expansionCacheTTL bounds how long a cached set of query-expansion
// variants is reused before the LLM is asked again.
const expansionCacheTTL = 15 * time.Minute

type expansionResponse struct {
	Variants []string `json:"variants"`
}

// expandQuery implements spec §4.5 step 3: one LLM call produces 2-3
// synonym/rephrasing variants, cached per agent+query so a repeated
// recall within the cache's TTL skips the round trip entirely. The
// original query is always included; when query expansion is disabled
// or the LLM is unavailable, or when the expansion call or its parse
// fails, the query set degrades to {original}.
func (g *Gate) expandQuery(ctx context.Context, agentID, query string) []string {
	if !g.cfg.QueryExpansion || !g.llm.IsAvailable() {
		return []string{query}
	}

	cacheKey := agentID + "\x00" + query
	if g.expansionCache != nil {
		if cached, ok := g.expansionCache.Get(cacheKey); ok {
			return append([]string{query}, splitVariants(cached)...)
		}
	}

	prompt := fmt.Sprintf("Produce 2-3 synonym/rephrasing variants of this query for search recall (no explanation, respond with exactly {\"variants\": [\"...\"]}):\n%s", query)
	raw, err := g.llm.Complete(ctx, prompt, providers.CompletionOptions{Temperature: 0.3, MaxTokens: 200, Format: "json"})
	if err != nil {
		g.logger.Warn("query expansion call failed, using original query only", zap.Error(err))
		return []string{query}
	}

	var resp expansionResponse
	if err := llmjson.Unmarshal([]byte(raw), &resp); err != nil {
		g.logger.Warn("query expansion response unparseable, using original query only", zap.Error(err))
		return []string{query}
	}
	variants := make([]string, 0, len(resp.Variants))
	for _, v := range resp.Variants {
		v = strings.TrimSpace(v)
		if v != "" && v != query {
			variants = append(variants, v)
		}
	}

	if g.expansionCache != nil {
		g.expansionCache.Set(cacheKey, strings.Join(variants, "\x1f"), expansionCacheTTL)
	}

	return append([]string{query}, variants...)
}

func splitVariants(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "\x1f")
}
