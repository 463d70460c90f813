package sqlitestore

import (
	"context"
	"fmt"

	"github.com/cortexmemory/cortex/internal/store"
)

// keywordSearch runs BM25 over memories_fts, joining back to memories
// so superseded rows never surface. fts5's bm25() returns lower-is-
// better scores; callers compare against vector distances (also
// lower-is-better) inside RRF by rank rather than raw score, so the
// sign convention does not need to match across the two searches.
func keywordSearch(ctx context.Context, db execer, agentID, query string, k int) ([]store.ScoredID, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT f.id, bm25(memories_fts) AS score
		FROM memories_fts f
		JOIN memories m ON m.id = f.id
		WHERE memories_fts MATCH ? AND f.agent_id = ? AND m.superseded_by IS NULL
		ORDER BY score
		LIMIT ?`, ftsQuery(query), agentID, k)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var out []store.ScoredID
	for rows.Next() {
		var s store.ScoredID
		if err := rows.Scan(&s.ID, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ftsQuery escapes query for fts5's MATCH syntax by quoting each
// token, so punctuation and bare operators in user text (AND, OR, -)
// are treated as literal words rather than query syntax.
func ftsQuery(q string) string {
	tokens := splitWords(q)
	if len(tokens) == 0 {
		return `""`
	}
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += " "
		}
		out += `"` + escapeQuotes(t) + `"`
	}
	return out
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' {
			out = append(out, '"', '"')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
