// Package signals is the fast channel: a library of language-aware
// regex patterns that pulls high-confidence atomic facts out of an
// exchange without any LLM or embedding call. Pattern style follows
// the teacher's package-level `var x = regexp.MustCompile(...)` idiom
// (internal/domain/shared/value_objects.go,
// internal/repository/validation.go) rather than building patterns at
// call time.
package signals

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cortexmemory/cortex/internal/domain"
)

// DetectedSignal is one fast-channel hit, ready to hand to the
// writer's batch path.
type DetectedSignal struct {
	Category   domain.Category
	Content    string
	Importance float64
	Confidence float64
	Pattern    string
}

type pattern struct {
	name       string
	re         *regexp.Regexp
	category   domain.Category
	importance float64
	confidence float64
	// template formats the matched groups into memory content; %s
	// placeholders are filled positionally from re's capture groups.
	template string
}

// patterns is intentionally small and precision-biased: the fast
// channel is meant to catch unambiguous statements cheaply, not to
// compete with the deep channel's recall.
var patterns = []pattern{
	{
		name:       "en_name",
		re:         regexp.MustCompile(`(?i)\bmy name is ([A-Z][\w'-]*(?:\s[A-Z][\w'-]*){0,2})`),
		category:   domain.CategoryIdentity,
		importance: 0.8, confidence: 0.9,
		template: "User's name is %s.",
	},
	{
		name:       "en_name_im",
		re:         regexp.MustCompile(`(?i)\bI('m| am) ([A-Z][\w'-]*(?:\s[A-Z][\w'-]*){0,2})(?:[,.]|\s+and|\s*$)`),
		category:   domain.CategoryIdentity,
		importance: 0.7, confidence: 0.75,
		template: "User's name is %s.",
	},
	{
		name:       "en_works_at",
		re:         regexp.MustCompile(`(?i)\bI work at ([A-Z][\w&.' -]*)`),
		category:   domain.CategoryFact,
		importance: 0.7, confidence: 0.85,
		template: "User works at %s.",
	},
	{
		name:       "en_lives_in",
		re:         regexp.MustCompile(`(?i)\bI live in ([A-Z][\w, -]*)`),
		category:   domain.CategoryFact,
		importance: 0.6, confidence: 0.8,
		template: "User lives in %s.",
	},
	{
		name:       "en_likes",
		re:         regexp.MustCompile(`(?i)\bI (?:really )?(?:like|love|enjoy) ([a-zA-Z][\w\s-]{2,40}?)(?:[.,!]|\s+and|\s*$)`),
		category:   domain.CategoryPreference,
		importance: 0.5, confidence: 0.7,
		template: "User likes %s.",
	},
	{
		name:       "en_dislikes",
		re:         regexp.MustCompile(`(?i)\bI (?:really )?(?:dislike|hate|don't like) ([a-zA-Z][\w\s-]{2,40}?)(?:[.,!]|\s+and|\s*$)`),
		category:   domain.CategoryPreference,
		importance: 0.5, confidence: 0.7,
		template: "User dislikes %s.",
	},
	{
		name:       "en_prefers_over",
		re:         regexp.MustCompile(`(?i)\bI prefer ([\w.+#-]+) over ([\w.+#-]+)`),
		category:   domain.CategoryPreference,
		importance: 0.6, confidence: 0.75,
		template: "User prefers %s over %s.",
	},
	{
		name:       "en_correction",
		re:         regexp.MustCompile(`(?i)\bactually,? (?:my|it'?s|it is) ([\w\s'-]{2,60}?)(?:,?\s+not\s+([\w\s'-]{2,40}))?[\s.!]*$`),
		category:   domain.CategoryCorrection,
		importance: 0.75, confidence: 0.8,
		template: "Correction: %s.",
	},
	{
		name:       "zh_name",
		re:         regexp.MustCompile(`我(?:的名字|叫)(?:是)?([\p{Han}A-Za-z·]{1,16})`),
		category:   domain.CategoryIdentity,
		importance: 0.8, confidence: 0.85,
		template: "用户的名字是%s。",
	},
	{
		name:       "zh_likes",
		re:         regexp.MustCompile(`我(?:很)?喜欢([\p{Han}\w]{1,20})`),
		category:   domain.CategoryPreference,
		importance: 0.5, confidence: 0.7,
		template: "用户喜欢%s。",
	},
	{
		name:       "ja_name",
		re:         regexp.MustCompile(`私(?:の名前)?は([\p{Han}\p{Hiragana}\p{Katakana}A-Za-z]{1,16})(?:です|と言います)`),
		category:   domain.CategoryIdentity,
		importance: 0.8, confidence: 0.85,
		template: "ユーザーの名前は%sです。",
	},
	{
		name:       "ja_likes",
		re:         regexp.MustCompile(`私は([\p{Han}\p{Hiragana}\p{Katakana}A-Za-z]{1,20})が好きです`),
		category:   domain.CategoryPreference,
		importance: 0.5, confidence: 0.7,
		template: "ユーザーは%sが好きです。",
	},
}

// Detect runs every pattern against text and returns the resulting
// signals. A single exchange typically yields zero, one, or a small
// handful of hits; duplicates across overlapping patterns are left
// for the writer's four-tier matcher to collapse.
func Detect(text string) []DetectedSignal {
	var out []DetectedSignal
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		content := fillTemplate(p.name, p.template, m[1:])
		if content == "" {
			continue
		}
		out = append(out, DetectedSignal{
			Category:   p.category,
			Content:    content,
			Importance: p.importance,
			Confidence: p.confidence,
			Pattern:    p.name,
		})
	}
	return out
}

// fillTemplate substitutes trimmed capture groups into tpl's %s
// placeholders. The first group is required; a missing first group
// means the pattern matched but captured nothing usable, so the
// signal is dropped. Trailing %s placeholders with no corresponding
// non-empty group (en_correction's optional "not X" clause) are
// dropped from the template entirely rather than rendered empty.
func fillTemplate(name, tpl string, groups []string) string {
	trimmed := make([]string, len(groups))
	for i, g := range groups {
		trimmed[i] = strings.TrimSpace(g)
	}
	if len(trimmed) == 0 || trimmed[0] == "" {
		return ""
	}

	if name == "en_correction" {
		if trimmed[1] != "" {
			return fmt.Sprintf("Correction: %s, not %s.", trimmed[0], trimmed[1])
		}
		return fmt.Sprintf("Correction: %s.", trimmed[0])
	}

	args := make([]any, 0, len(trimmed))
	for _, g := range trimmed {
		if g == "" {
			continue
		}
		args = append(args, g)
	}
	if strings.Count(tpl, "%s") != len(args) {
		return ""
	}
	return fmt.Sprintf(tpl, args...)
}
