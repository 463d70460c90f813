package sqlitestore

import (
	"context"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

func (s *SQLiteStore) InsertMemory(ctx context.Context, spec *domain.Memory) (*domain.Memory, error) {
	return insertMemory(ctx, s.db, spec)
}

func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*domain.Memory, error) {
	return getMemory(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateMemory(ctx context.Context, id string, patch store.MemoryPatch) error {
	return updateMemory(ctx, s.db, id, patch)
}

func (s *SQLiteStore) DeleteMemory(ctx context.Context, id string) error {
	return deleteMemory(ctx, s.db, id)
}

func (s *SQLiteStore) ListMemories(ctx context.Context, f store.Filter, srt store.Sort, p store.Page) ([]*domain.Memory, error) {
	return listMemories(ctx, s.db, f, srt, p)
}

func (s *SQLiteStore) KeywordSearch(ctx context.Context, agentID, query string, k int) ([]store.ScoredID, error) {
	return keywordSearch(ctx, s.db, agentID, query, k)
}

func (s *SQLiteStore) VectorUpsert(ctx context.Context, id string, vec []float32) error {
	m, err := getMemory(ctx, s.db, id)
	if err != nil {
		return err
	}
	if m == nil {
		return vectorUpsert(ctx, s.db, s.vec, "", id, vec)
	}
	return vectorUpsert(ctx, s.db, s.vec, m.AgentID, id, vec)
}

func (s *SQLiteStore) VectorSearch(ctx context.Context, vec []float32, k int, f store.Filter) ([]store.ScoredID, error) {
	return vectorSearch(ctx, s.db, s.vec, vec, k, f)
}

func (s *SQLiteStore) VectorDelete(ctx context.Context, ids []string) error {
	return vectorDelete(ctx, s.db, s.vec, ids)
}

func (s *SQLiteStore) InsertRelation(ctx context.Context, r *domain.Relation) (*domain.Relation, error) {
	return insertRelation(ctx, s.db, r)
}

func (s *SQLiteStore) ListRelations(ctx context.Context, agentID string) ([]*domain.Relation, error) {
	return listRelations(ctx, s.db, agentID)
}

func (s *SQLiteStore) ExpireRelation(ctx context.Context, id string) error {
	return expireRelation(ctx, s.db, id)
}

func (s *SQLiteStore) InsertExtractionLog(ctx context.Context, l *domain.ExtractionLog) error {
	return insertExtractionLog(ctx, s.db, l)
}

func (s *SQLiteStore) UpsertAgent(ctx context.Context, a *domain.Agent) (*domain.Agent, error) {
	return upsertAgent(ctx, s.db, a)
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	return getAgent(ctx, s.db, id)
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	return listAgents(ctx, s.db)
}
