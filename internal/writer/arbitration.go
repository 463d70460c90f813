package writer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/llmjson"
	"github.com/cortexmemory/cortex/internal/providers"
)

// arbitrationDecision is the LLM's (or the safe default's) verdict
// for a single Tier-2 candidate pair.
type arbitrationDecision struct {
	Action        string `json:"action"` // keep|replace|merge
	MergedContent string `json:"merged_content"`
	Reasoning     string `json:"reasoning"`
}

const defaultDecisionAction = "replace"

// arbitrateBatch issues one LLM call covering every needsLLM index,
// the single most important latency optimization named in the write
// path: a deep-channel ingest routinely produces several extractions
// and must not become several sequential arbitration round trips.
// On any parse failure it falls back to per-pair calls.
func (w *Writer) arbitrateBatch(ctx context.Context, classes []classification, needsLLM []int) []arbitrationDecision {
	out := make([]arbitrationDecision, len(needsLLM))
	for i := range out {
		out[i] = arbitrationDecision{Action: defaultDecisionAction, Reasoning: "llm unavailable"}
	}

	if !w.llm.IsAvailable() {
		return out
	}

	prompt := buildBatchArbitrationPrompt(classes, needsLLM)
	resp, err := w.llm.Complete(ctx, prompt, providers.CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   200 * len(needsLLM),
		Format:      "json",
	})
	if err != nil {
		w.logger.Warn("batch arbitration call failed, falling back to per-pair", zap.Error(err))
		return w.arbitratePerPair(ctx, classes, needsLLM)
	}

	var decisions []arbitrationDecision
	if err := llmjson.Unmarshal([]byte(resp), &decisions); err != nil || len(decisions) != len(needsLLM) {
		w.logger.Warn("batch arbitration response malformed, falling back to per-pair", zap.Error(err))
		return w.arbitratePerPair(ctx, classes, needsLLM)
	}

	for i, d := range decisions {
		out[i] = normalizeDecision(d)
	}
	return out
}

func (w *Writer) arbitratePerPair(ctx context.Context, classes []classification, needsLLM []int) []arbitrationDecision {
	out := make([]arbitrationDecision, len(needsLLM))
	for i, idx := range needsLLM {
		c := classes[idx]
		prompt := buildSinglePairPrompt(c)
		resp, err := w.llm.Complete(ctx, prompt, providers.CompletionOptions{Temperature: 0.2, MaxTokens: 200, Format: "json"})
		if err != nil {
			out[i] = arbitrationDecision{Action: defaultDecisionAction, Reasoning: "llm call failed"}
			continue
		}
		var d arbitrationDecision
		if err := llmjson.Unmarshal([]byte(resp), &d); err != nil {
			out[i] = arbitrationDecision{Action: defaultDecisionAction, Reasoning: "unparseable response"}
			continue
		}
		out[i] = normalizeDecision(d)
	}
	return out
}

func normalizeDecision(d arbitrationDecision) arbitrationDecision {
	switch strings.ToLower(strings.TrimSpace(d.Action)) {
	case "keep", "replace", "merge":
		d.Action = strings.ToLower(strings.TrimSpace(d.Action))
	default:
		d.Action = defaultDecisionAction
	}
	return d
}

func buildSinglePairPrompt(c classification) string {
	return fmt.Sprintf(`You are deduplicating an AI agent's memory store.

EXISTING memory: %q
NEW statement: %q

Decide one action:
- "keep": the existing memory already captures this, the new statement adds nothing.
- "replace": the new statement supersedes the existing one (e.g. a correction or update).
- "merge": both statements hold true and should be combined into one memory.

Rules:
1. If merging, provide "merged_content" combining both facts concisely.
2. Prefer "replace" when the new statement directly contradicts the old one.
3. Respond with exactly one JSON object: {"action": "keep|replace|merge", "merged_content": "...", "reasoning": "..."}.
`, c.candidate.Content, c.ext.Content)
}

// buildBatchArbitrationPrompt asks for a JSON array of decisions, one
// per numbered pair, same length and order as the pairs listed — the
// batch form of the single-pair prompt, which takes one pair and
// returns one JSON object.
func buildBatchArbitrationPrompt(classes []classification, needsLLM []int) string {
	var b strings.Builder
	b.WriteString("You are deduplicating an AI agent's memory store. For each numbered pair below, decide one action: \"keep\", \"replace\", or \"merge\".\n\n")
	for i, idx := range needsLLM {
		c := classes[idx]
		fmt.Fprintf(&b, "%d. EXISTING: %q\n   NEW: %q\n\n", i+1, c.candidate.Content, c.ext.Content)
	}
	b.WriteString("Rules:\n")
	b.WriteString("1. \"keep\" means the existing memory already captures the new statement.\n")
	b.WriteString("2. \"replace\" means the new statement supersedes the existing one.\n")
	b.WriteString("3. \"merge\" means both hold true and should combine into one memory; include \"merged_content\".\n")
	fmt.Fprintf(&b, "4. Respond with exactly one JSON array of %d objects, same order as the pairs above, each shaped {\"action\": \"keep|replace|merge\", \"merged_content\": \"...\", \"reasoning\": \"...\"}.\n", len(needsLLM))
	return b.String()
}
