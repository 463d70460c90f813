package signals

import (
	"regexp"
	"strings"
)

// smallTalkPatterns match pure greeting/filler exchanges across the
// same three languages Detect covers. Anchored with ^...$ (modulo
// punctuation/whitespace) so a greeting embedded in a longer, fact-
// bearing message does not trigger a false skip.
var smallTalkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|yo|howdy)( there)?[!.,\s]*$`),
	regexp.MustCompile(`(?i)^(good\s?(morning|afternoon|evening|night))[!.,\s]*$`),
	regexp.MustCompile(`(?i)^(how('s| is) it going\??|how are you( doing)?\??|what'?s up\??|sup\??)[!.,\s]*$`),
	regexp.MustCompile(`(?i)^(thanks?( you)?( so much)?|thank you( so much)?|ty|thx|cheers)[!.,\s]*$`),
	regexp.MustCompile(`(?i)^(ok(ay)?|cool|nice|great|got it|sounds good|sure|alright)[!.,\s]*$`),
	regexp.MustCompile(`(?i)^(bye|goodbye|see you|see ya|later|take care)[!.,\s]*$`),
	regexp.MustCompile(`^(你好|您好|嗨|早上好|晚上好|谢谢|多谢|好的|再见|拜拜)[!。,，\s]*$`),
	regexp.MustCompile(`^(こんにちは|おはよう(ございます)?|こんばんは|ありがとう(ございます)?|了解(です)?|さようなら|またね)[!。,、\s]*$`),
}

// IsSmallTalk reports whether text is pure greeting/filler, letting
// the Gate and Sieve skip expensive LLM work. Empty or whitespace-only
// input is not small talk — it is the caller's job to reject it
// separately (Sieve's sanitize step, Gate's clean step).
func IsSmallTalk(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, p := range smallTalkPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}
