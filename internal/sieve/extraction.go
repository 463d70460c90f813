package sieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/llmjson"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/writer"
)

// llmExtractedMemory is the loose shape an extraction LLM call
// returns for a single memory before validation narrows it into a
// writer.Extraction.
type llmExtractedMemory struct {
	Category   string  `json:"category"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
	Confidence float64 `json:"confidence"`
}

type llmRelation struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
}

// llmExtractionResponse is the dynamically-typed envelope the
// extraction LLM returns: either {"nothing_extracted": true} or a
// memories/relations payload (spec §9's closed tagged
// ExtractionResult, parsed before anything reaches the writer).
type llmExtractionResponse struct {
	NothingExtracted bool                  `json:"nothing_extracted"`
	Memories         []llmExtractedMemory  `json:"memories"`
	Relations        []llmRelation         `json:"relations"`
}

// ExtractionResult is the sieve's closed tagged representation of a
// deep-channel LLM response once parsed and validated (spec §9).
type ExtractionResult struct {
	NothingExtracted bool
	Memories         []writer.Extraction
	Relations        []domain.Relation
}

// runDeepChannel invokes the extraction LLM over exchange (already
// sanitized/windowed) with profile optionally prepended as context,
// then validates every returned memory/relation against the closed
// category/predicate vocabularies, dropping anything invalid rather
// than failing the whole extraction (spec §4.4 step 4).
func (s *Sieve) runDeepChannel(ctx context.Context, exchange, profile string) (ExtractionResult, string, error) {
	prompt := buildExtractionPrompt(exchange, profile, s.cfg.MaxExtractionTokens)
	raw, err := s.llm.Complete(ctx, prompt, providers.CompletionOptions{
		Temperature: 0.1,
		MaxTokens:   s.cfg.MaxExtractionTokens,
		Format:      "json",
	})
	if err != nil {
		return ExtractionResult{NothingExtracted: true}, "", err
	}

	var resp llmExtractionResponse
	if err := llmjson.Unmarshal([]byte(raw), &resp); err != nil {
		return ExtractionResult{NothingExtracted: true}, raw, nil
	}
	if resp.NothingExtracted {
		return ExtractionResult{NothingExtracted: true}, raw, nil
	}

	result := ExtractionResult{}
	for _, m := range resp.Memories {
		ext, ok := validateExtractedMemory(m)
		if !ok {
			continue
		}
		result.Memories = append(result.Memories, ext)
	}
	for _, r := range resp.Relations {
		rel, ok := validateExtractedRelation(r)
		if !ok {
			continue
		}
		result.Relations = append(result.Relations, rel)
	}
	return result, raw, nil
}

func validateExtractedMemory(m llmExtractedMemory) (writer.Extraction, bool) {
	content := strings.TrimSpace(m.Content)
	if len(content) < 3 {
		return writer.Extraction{}, false
	}
	cat := domain.Category(strings.TrimSpace(m.Category))
	if !domain.ValidCategories[cat] {
		return writer.Extraction{}, false
	}
	if m.Importance < 0 || m.Importance > 1 {
		return writer.Extraction{}, false
	}
	if m.Confidence < 0 || m.Confidence > 1 {
		return writer.Extraction{}, false
	}
	return writer.Extraction{
		Category:   cat,
		Content:    content,
		Importance: m.Importance,
		Confidence: m.Confidence,
	}, true
}

func validateExtractedRelation(r llmRelation) (domain.Relation, bool) {
	pred := domain.Predicate(strings.TrimSpace(r.Predicate))
	if !domain.ValidPredicates[pred] {
		return domain.Relation{}, false
	}
	subject := strings.TrimSpace(r.Subject)
	object := strings.TrimSpace(r.Object)
	if subject == "" || object == "" {
		return domain.Relation{}, false
	}
	conf := r.Confidence
	if conf <= 0 {
		conf = 0.7
	}
	return domain.Relation{
		Subject:    subject,
		Predicate:  pred,
		Object:     object,
		Confidence: conf,
	}, true
}

// buildExtractionPrompt is the structured-output system prompt the
// deep channel sends. Listing the closed category set inline is what
// lets the LLM's loose JSON be trusted enough to validate rather than
// re-derive from scratch.
func buildExtractionPrompt(exchange, profile string, maxTokens int) string {
	var b strings.Builder
	b.WriteString("You extract durable facts from a conversation exchange for an AI agent's long-term memory.\n\n")
	if profile != "" {
		fmt.Fprintf(&b, "What you already know about this user:\n%s\n\n", profile)
	}
	b.WriteString("Exchange:\n")
	b.WriteString(exchange)
	b.WriteString("\n\n")
	b.WriteString("Extract zero or more atomic memories and zero or more relations.\n")
	b.WriteString("Valid categories: identity, preference, decision, fact, entity, correction, todo, skill, relationship, goal, insight, project_state, constraint, policy, agent_persona, agent_relationship, agent_user_habit, agent_self_improvement, context, summary.\n")
	b.WriteString("Valid relation predicates: uses, works_at, lives_in, knows, manages, belongs_to, created, prefers, studies, skilled_in, collaborates_with, reports_to, owns, interested_in, related_to, not_uses, not_interested_in, dislikes.\n")
	b.WriteString("If nothing durable is worth remembering, respond with exactly {\"nothing_extracted\": true}.\n")
	b.WriteString("Otherwise respond with exactly one JSON object shaped:\n")
	b.WriteString(`{"memories": [{"category": "...", "content": "...", "importance": 0.0-1.0, "confidence": 0.0-1.0}], "relations": [{"subject": "...", "predicate": "...", "object": "...", "confidence": 0.0-1.0}]}`)
	b.WriteString("\n")
	return b.String()
}
