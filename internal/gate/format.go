package gate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// approxTokens estimates a token count from character length using the
// common ~4-chars-per-token heuristic; good enough for a greedy budget
// check, not for billing.
func approxTokens(s string) int {
	return (len(s) + 3) / 4
}

// format implements spec §4.5 step 9: greedily append memory contents,
// structured-delimited, until the next one would exceed maxTokens.
// Every memory actually injected has its access_count incremented;
// that count feeds the access boost in scoring, so a later recall of
// the same query can rank the same memories differently.
func (g *Gate) format(ctx context.Context, ordered []ScoredMemory, maxTokens int) (string, int) {
	var b strings.Builder
	used := 0
	injected := 0

	for _, s := range ordered {
		block := formatBlock(s.Memory)
		cost := approxTokens(block)
		if used+cost > maxTokens {
			break
		}
		b.WriteString(block)
		b.WriteString("\n")
		used += cost
		injected++

		if err := g.store.UpdateMemory(ctx, s.Memory.ID, store.MemoryPatch{AccessCountIncr: 1}); err != nil {
			g.logger.Warn("failed to increment access_count on injected memory", zap.Error(err))
		}
	}

	return strings.TrimSpace(b.String()), injected
}

func formatBlock(m *domain.Memory) string {
	return fmt.Sprintf("[%s] %s", m.Category, m.Content)
}
