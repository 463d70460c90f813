package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

func insertMemory(ctx context.Context, db execer, spec *domain.Memory) (*domain.Memory, error) {
	m := *spec
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := nowRFC3339()
	m.CreatedAt = mustParse(now)
	m.UpdatedAt = m.CreatedAt

	if (m.ExpiresAt != nil) != (m.Layer == domain.LayerWorking) {
		return nil, cortexerrors.NewInvariant("expires_at must be set iff layer is working")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	metaJSON, err := marshalMetadata(m.Metadata)
	if err != nil {
		return nil, err
	}

	var expiresAt sql.NullString
	if m.ExpiresAt != nil {
		expiresAt = sql.NullString{String: m.ExpiresAt.UTC().Format(rfc3339), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO memories (id, agent_id, layer, category, content, importance, confidence,
			decay_score, access_count, created_at, updated_at, expires_at, superseded_by,
			is_pinned, source, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		m.ID, m.AgentID, string(m.Layer), string(m.Category), m.Content, m.Importance, m.Confidence,
		m.DecayScore, m.AccessCount, now, now, nullableString(expiresAt), boolToInt(m.IsPinned), m.Source, metaJSON)
	if err != nil {
		return nil, fmt.Errorf("inserting memory: %w", err)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO memories_fts (id, agent_id, content) VALUES (?, ?, ?)`,
		m.ID, m.AgentID, m.Content); err != nil {
		return nil, fmt.Errorf("indexing memory for keyword search: %w", err)
	}

	return &m, nil
}

func getMemory(ctx context.Context, db execer, id string) (*domain.Memory, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, agent_id, layer, category, content, importance, confidence, decay_score,
			access_count, created_at, updated_at, expires_at, superseded_by, is_pinned, source, metadata
		FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func updateMemory(ctx context.Context, db execer, id string, patch store.MemoryPatch) error {
	existing, err := getMemory(ctx, db, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return cortexerrors.NewValidation("memory not found: " + id)
	}

	if patch.Layer != nil {
		existing.Layer = *patch.Layer
	}
	if patch.Category != nil {
		existing.Category = *patch.Category
	}
	if patch.Content != nil {
		existing.Content = *patch.Content
	}
	if patch.Importance != nil {
		existing.Importance = *patch.Importance
	}
	if patch.Confidence != nil {
		existing.Confidence = *patch.Confidence
	}
	if patch.DecayScore != nil {
		existing.DecayScore = *patch.DecayScore
	}
	if patch.AccessCountIncr != 0 {
		existing.AccessCount += patch.AccessCountIncr
	}
	if patch.ClearExpiresAt {
		existing.ExpiresAt = nil
	} else if patch.ExpiresAt != nil {
		existing.ExpiresAt = patch.ExpiresAt
	}
	if patch.SupersededBy != nil {
		existing.SupersededBy = patch.SupersededBy
	}
	if patch.IsPinned != nil {
		existing.IsPinned = *patch.IsPinned
	}
	if patch.Metadata != nil {
		existing.Metadata = patch.Metadata
	}

	if (existing.ExpiresAt != nil) != (existing.Layer == domain.LayerWorking) {
		return cortexerrors.NewInvariant("expires_at must be set iff layer is working")
	}

	metaJSON, err := marshalMetadata(existing.Metadata)
	if err != nil {
		return err
	}
	var expiresAt sql.NullString
	if existing.ExpiresAt != nil {
		expiresAt = sql.NullString{String: existing.ExpiresAt.UTC().Format(rfc3339), Valid: true}
	}
	var supersededBy sql.NullString
	if existing.SupersededBy != nil {
		supersededBy = sql.NullString{String: *existing.SupersededBy, Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		UPDATE memories SET layer=?, category=?, content=?, importance=?, confidence=?,
			decay_score=?, access_count=?, updated_at=?, expires_at=?, superseded_by=?,
			is_pinned=?, metadata=?
		WHERE id=?`,
		string(existing.Layer), string(existing.Category), existing.Content, existing.Importance,
		existing.Confidence, existing.DecayScore, existing.AccessCount, nowRFC3339(),
		nullableString(expiresAt), nullableString(supersededBy), boolToInt(existing.IsPinned), metaJSON, id)
	if err != nil {
		return fmt.Errorf("updating memory: %w", err)
	}

	if patch.Content != nil {
		if _, err := db.ExecContext(ctx, `UPDATE memories_fts SET content=? WHERE id=?`, *patch.Content, id); err != nil {
			return fmt.Errorf("updating keyword index: %w", err)
		}
	}
	return nil
}

func deleteMemory(ctx context.Context, db execer, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM memories WHERE id=?`, id); err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM memories_fts WHERE id=?`, id); err != nil {
		return fmt.Errorf("deleting keyword index row: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM vectors WHERE id=?`, id); err != nil {
		return fmt.Errorf("deleting vector row: %w", err)
	}
	return nil
}

func listMemories(ctx context.Context, db execer, f store.Filter, s store.Sort, p store.Page) ([]*domain.Memory, error) {
	q := `SELECT id, agent_id, layer, category, content, importance, confidence, decay_score,
		access_count, created_at, updated_at, expires_at, superseded_by, is_pinned, source, metadata
		FROM memories WHERE agent_id = ?`
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
	if f.ExcludeSuperseded {
		q += ` AND superseded_by IS NULL`
	}
	if f.PinnedOnly {
		q += ` AND is_pinned = 1`
	}

	orderField := "created_at"
	switch s.Field {
	case "updated_at", "importance", "confidence", "decay_score", "access_count":
		orderField = s.Field
	}
	q += fmt.Sprintf(` ORDER BY %s`, orderField)
	if s.Descending {
		q += ` DESC`
	}
	if p.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, p.Limit, p.Offset)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	var out []*domain.Memory
	for rows.Next() {
		m, err := scanMemoryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (*domain.Memory, error) {
	return scanMemoryRows(row)
}

func scanMemoryRows(row rowScanner) (*domain.Memory, error) {
	var m domain.Memory
	var layer, category string
	var createdAt, updatedAt string
	var expiresAt, supersededBy sql.NullString
	var isPinned int
	var metaJSON string

	err := row.Scan(&m.ID, &m.AgentID, &layer, &category, &m.Content, &m.Importance, &m.Confidence,
		&m.DecayScore, &m.AccessCount, &createdAt, &updatedAt, &expiresAt, &supersededBy, &isPinned,
		&m.Source, &metaJSON)
	if err != nil {
		return nil, err
	}

	m.Layer = domain.Layer(layer)
	m.Category = domain.Category(category)
	m.CreatedAt = mustParse(createdAt)
	m.UpdatedAt = mustParse(updatedAt)
	if expiresAt.Valid {
		t := mustParse(expiresAt.String)
		m.ExpiresAt = &t
	}
	if supersededBy.Valid {
		v := supersededBy.String
		m.SupersededBy = &v
	}
	m.IsPinned = isPinned != 0
	m.Metadata = unmarshalMetadata(metaJSON)
	return &m, nil
}
