package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

// txStore binds every store.Store method to a single open
// transaction, sharing the parent's in-memory vector index. It is
// handed to Transaction's callback and discarded once that callback
// returns; it must not escape the callback.
type txStore struct {
	parent *SQLiteStore
	tx     *sql.Tx
}

func (t *txStore) InsertMemory(ctx context.Context, spec *domain.Memory) (*domain.Memory, error) {
	return insertMemory(ctx, t.tx, spec)
}

func (t *txStore) GetMemory(ctx context.Context, id string) (*domain.Memory, error) {
	return getMemory(ctx, t.tx, id)
}

func (t *txStore) UpdateMemory(ctx context.Context, id string, patch store.MemoryPatch) error {
	return updateMemory(ctx, t.tx, id, patch)
}

func (t *txStore) DeleteMemory(ctx context.Context, id string) error {
	return deleteMemory(ctx, t.tx, id)
}

func (t *txStore) ListMemories(ctx context.Context, f store.Filter, srt store.Sort, p store.Page) ([]*domain.Memory, error) {
	return listMemories(ctx, t.tx, f, srt, p)
}

func (t *txStore) KeywordSearch(ctx context.Context, agentID, query string, k int) ([]store.ScoredID, error) {
	return keywordSearch(ctx, t.tx, agentID, query, k)
}

func (t *txStore) VectorUpsert(ctx context.Context, id string, vec []float32) error {
	m, err := getMemory(ctx, t.tx, id)
	if err != nil {
		return err
	}
	agentID := ""
	if m != nil {
		agentID = m.AgentID
	}
	return vectorUpsert(ctx, t.tx, t.parent.vec, agentID, id, vec)
}

func (t *txStore) VectorSearch(ctx context.Context, vec []float32, k int, f store.Filter) ([]store.ScoredID, error) {
	return vectorSearch(ctx, t.tx, t.parent.vec, vec, k, f)
}

func (t *txStore) VectorDelete(ctx context.Context, ids []string) error {
	return vectorDelete(ctx, t.tx, t.parent.vec, ids)
}

func (t *txStore) InsertRelation(ctx context.Context, r *domain.Relation) (*domain.Relation, error) {
	return insertRelation(ctx, t.tx, r)
}

func (t *txStore) ListRelations(ctx context.Context, agentID string) ([]*domain.Relation, error) {
	return listRelations(ctx, t.tx, agentID)
}

func (t *txStore) ExpireRelation(ctx context.Context, id string) error {
	return expireRelation(ctx, t.tx, id)
}

func (t *txStore) InsertExtractionLog(ctx context.Context, l *domain.ExtractionLog) error {
	return insertExtractionLog(ctx, t.tx, l)
}

func (t *txStore) UpsertAgent(ctx context.Context, a *domain.Agent) (*domain.Agent, error) {
	return upsertAgent(ctx, t.tx, a)
}

func (t *txStore) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return getAgent(ctx, t.tx, id)
}

func (t *txStore) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	return listAgents(ctx, t.tx)
}

// Transaction does not nest; fn runs inline against the same
// transaction already open on t.
func (t *txStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (t *txStore) Close() error { return nil }
