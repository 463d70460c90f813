package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cortexmemory/cortex/internal/domain"
)

func upsertAgent(ctx context.Context, db execer, a *domain.Agent) (*domain.Agent, error) {
	out := *a
	now := nowRFC3339()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = mustParse(now)
	}
	out.UpdatedAt = mustParse(now)

	configJSON, err := json.Marshal(out.Config)
	if err != nil {
		return nil, fmt.Errorf("marshaling agent config: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO agents (id, name, config_json, profile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, config_json=excluded.config_json,
			profile=excluded.profile, updated_at=excluded.updated_at`,
		out.ID, out.Name, string(configJSON), out.Profile, out.CreatedAt.UTC().Format(rfc3339), now)
	if err != nil {
		return nil, fmt.Errorf("upserting agent: %w", err)
	}
	return &out, nil
}

func getAgent(ctx context.Context, db execer, id string) (*domain.Agent, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, config_json, profile, created_at, updated_at FROM agents WHERE id = ?`, id)

	var a domain.Agent
	var configJSON, createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.Name, &configJSON, &a.Profile, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading agent: %w", err)
	}

	a.Config = map[string]any{}
	_ = json.Unmarshal([]byte(configJSON), &a.Config)
	a.CreatedAt = mustParse(createdAt)
	a.UpdatedAt = mustParse(updatedAt)
	return &a, nil
}

func listAgents(ctx context.Context, db execer) ([]*domain.Agent, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, config_json, profile, created_at, updated_at FROM agents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var out []*domain.Agent
	for rows.Next() {
		var a domain.Agent
		var configJSON, createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Name, &configJSON, &a.Profile, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning agent: %w", err)
		}
		a.Config = map[string]any{}
		_ = json.Unmarshal([]byte(configJSON), &a.Config)
		a.CreatedAt = mustParse(createdAt)
		a.UpdatedAt = mustParse(updatedAt)
		out = append(out, &a)
	}
	return out, rows.Err()
}
