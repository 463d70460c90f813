package sieve

import "strings"

// Message is one turn of a multi-turn conversation passed to Ingest's
// optional windowing path.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// BuildWindow keeps only the last contextMessages turns and formats
// them as alternating [USER]/[ASSISTANT] blocks, each truncated to a
// share of maxChars proportional to its own raw length with a
// per-message floor (spec §4.4 step 2, an observed heuristic the spec
// itself calls acceptable as documented — see DESIGN.md's open
// question decisions).
func BuildWindow(messages []Message, contextMessages, maxChars, floorChars int) string {
	if len(messages) == 0 {
		return ""
	}
	if contextMessages > 0 && len(messages) > contextMessages {
		messages = messages[len(messages)-contextMessages:]
	}

	totalLen := 0
	for _, m := range messages {
		totalLen += len(m.Content)
	}
	if totalLen == 0 {
		return ""
	}

	var b strings.Builder
	for i, m := range messages {
		budget := floorChars
		if maxChars > 0 {
			share := int(float64(maxChars) * float64(len(m.Content)) / float64(totalLen))
			if share > budget {
				budget = share
			}
		}
		content := truncate(m.Content, budget)

		label := "[ASSISTANT]"
		if strings.EqualFold(m.Role, "user") {
			label = "[USER]"
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(content)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
