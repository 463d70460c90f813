package sieve

import (
	"regexp"
	"strings"
)

// injectedTagPatterns strip content the Gate itself injected on a
// prior recall (or any chat-ML/system framing an upstream agent
// wrapper adds) before it reaches extraction. Grounded on the
// teacher's package-level regexp.MustCompile idiom in
// internal/repository/validation.go. Without this step the Gate's own
// recalled context would be re-ingested as new facts on the very next
// turn.
var injectedTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<cortex_memory>.*?</cortex_memory>`),
	regexp.MustCompile(`(?is)<cortex_context>.*?</cortex_context>`),
	regexp.MustCompile(`(?is)<system>.*?</system>`),
	regexp.MustCompile(`(?is)<\|im_start\|>.*?<\|im_end\|>`),
	regexp.MustCompile(`(?i)^\s*\[(SYSTEM|TOOL|FUNCTION)\].*$`),
	regexp.MustCompile(`(?i)as an ai language model,?\s*`),
	regexp.MustCompile(`(?i)i('m| am) an ai (assistant|language model)[^.]*\.\s*`),
}

// Sanitize strips previously injected memory/context tags, system/tool
// role markers, chat-ML framing, and capability-blurb filler from raw
// exchange text (spec §4.4 step 1).
func Sanitize(text string) string {
	out := text
	for _, p := range injectedTagPatterns {
		out = p.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}
