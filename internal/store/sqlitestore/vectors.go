package sqlitestore

import (
	"context"
	"fmt"

	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/vectorindex"
)

// vectorUpsert mirrors the write to both the durable vectors table
// and the in-memory index the store searches against. Per the
// failure semantics in the data model, a vector write failure must
// never fail the surrounding memory insert — callers log and
// continue rather than propagating this as fatal.
func vectorUpsert(ctx context.Context, db execer, idx *vectorindex.Index, agentID, id string, vec []float32) error {
	blob := encodeVector(vec)
	_, err := db.ExecContext(ctx, `
		INSERT INTO vectors (id, agent_id, dims, vector, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET agent_id=excluded.agent_id, dims=excluded.dims,
			vector=excluded.vector, created_at=excluded.created_at`,
		id, agentID, len(vec), blob, nowRFC3339())
	if err != nil {
		return fmt.Errorf("upserting vector row: %w", err)
	}
	idx.Upsert(id, vec)
	return nil
}

func vectorDelete(ctx context.Context, db execer, idx *vectorindex.Index, ids []string) error {
	for _, id := range ids {
		if _, err := db.ExecContext(ctx, `DELETE FROM vectors WHERE id=?`, id); err != nil {
			return fmt.Errorf("deleting vector row: %w", err)
		}
	}
	idx.Delete(ids)
	return nil
}

// vectorSearch delegates scoring to the in-memory index, then applies
// the agent scope and liveness filter the store contract requires:
// callers never see superseded memories or rows from another agent.
func vectorSearch(ctx context.Context, db execer, idx *vectorindex.Index, vec []float32, k int, f store.Filter) ([]store.ScoredID, error) {
	live, err := liveIDSet(ctx, db, f)
	if err != nil {
		return nil, err
	}

	pred := func(id string) bool {
		_, ok := live[id]
		return ok
	}
	hits := idx.Search(vec, k, pred)

	out := make([]store.ScoredID, 0, len(hits))
	for _, h := range hits {
		out = append(out, store.ScoredID{ID: h.ID, Score: h.Distance})
	}
	return out, nil
}

// liveIDSet loads the ids satisfying f (agent, liveness, pinned) so
// vector scoring can filter in-memory without a query per candidate.
func liveIDSet(ctx context.Context, db execer, f store.Filter) (map[string]struct{}, error) {
	q := `SELECT id FROM memories WHERE agent_id = ? AND superseded_by IS NULL`
	args := []any{f.AgentID}
	if f.Layer != nil {
		q += ` AND layer = ?`
		args = append(args, string(*f.Layer))
	}
	if len(f.Categories) > 0 {
		q += ` AND category IN (` + placeholders(len(f.Categories)) + `)`
		for _, c := range f.Categories {
			args = append(args, string(c))
		}
	}
	if f.PinnedOnly {
		q += ` AND is_pinned = 1`
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("loading live id set: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
