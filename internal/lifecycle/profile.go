package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
)

// synthesizeProfile implements spec §4.6 step 6: condense an agent's
// core memories into a terse profile string stored on the agent
// record, which the Sieve's deep channel reads back for prompt
// injection.
func (e *Engine) synthesizeProfile(ctx context.Context, agentID string, dryRun bool) bool {
	core := domain.LayerCore
	memories, err := e.store.ListMemories(ctx, store.Filter{AgentID: agentID, Layer: &core, ExcludeSuperseded: true}, store.Sort{Field: "importance", Descending: true}, e.batchPage())
	if err != nil || len(memories) == 0 {
		return false
	}
	if dryRun {
		return true
	}

	profile := e.llmSynthesizeProfile(ctx, memories)

	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		e.logger.Warn("profile synthesis: loading agent failed", zap.String("agent_id", agentID), zap.Error(err))
		return false
	}
	if agent == nil {
		agent = &domain.Agent{ID: agentID}
	}
	agent.Profile = profile
	if _, err := e.store.UpsertAgent(ctx, agent); err != nil {
		e.logger.Warn("profile synthesis: saving agent profile failed", zap.String("agent_id", agentID), zap.Error(err))
		return false
	}
	return true
}

func (e *Engine) llmSynthesizeProfile(ctx context.Context, memories []*domain.Memory) string {
	if !e.llm.IsAvailable() {
		return fallbackProfile(memories)
	}
	var b strings.Builder
	b.WriteString("Condense these core memories into a terse third-person profile paragraph an AI assistant can use as context:\n")
	for _, m := range memories {
		b.WriteString("- ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	raw, err := e.llm.Complete(ctx, b.String(), providers.CompletionOptions{Temperature: 0.2, MaxTokens: 300, Format: "text"})
	if err != nil {
		e.logger.Warn("profile synthesis: call failed, using fallback summary", zap.Error(err))
		return fallbackProfile(memories)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallbackProfile(memories)
	}
	return raw
}

func fallbackProfile(memories []*domain.Memory) string {
	return fmt.Sprintf("Profile built from %d core memories.", len(memories))
}
