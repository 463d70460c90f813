package sqlitestore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
)

func insertRelation(ctx context.Context, db execer, r *domain.Relation) (*domain.Relation, error) {
	if !domain.ValidPredicates[r.Predicate] {
		return nil, cortexerrors.NewValidation("unknown relation predicate: " + string(r.Predicate))
	}
	out := *r
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.CreatedAt = mustParse(nowRFC3339())

	_, err := db.ExecContext(ctx, `
		INSERT INTO relations (id, agent_id, subject, predicate, object, confidence, expired, memory_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		out.ID, out.AgentID, out.Subject, string(out.Predicate), out.Object, out.Confidence,
		boolToInt(out.Expired), out.MemoryID, nowRFC3339())
	if err != nil {
		return nil, fmt.Errorf("inserting relation: %w", err)
	}
	return &out, nil
}

func listRelations(ctx context.Context, db execer, agentID string) ([]*domain.Relation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, agent_id, subject, predicate, object, confidence, expired, memory_id, created_at
		FROM relations WHERE agent_id = ? AND expired = 0`, agentID)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Relation
	for rows.Next() {
		var r domain.Relation
		var predicate, createdAt string
		var expired int
		if err := rows.Scan(&r.ID, &r.AgentID, &r.Subject, &predicate, &r.Object, &r.Confidence,
			&expired, &r.MemoryID, &createdAt); err != nil {
			return nil, err
		}
		r.Predicate = domain.Predicate(predicate)
		r.Expired = expired != 0
		r.CreatedAt = mustParse(createdAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func expireRelation(ctx context.Context, db execer, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE relations SET expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("expiring relation: %w", err)
	}
	return nil
}
