package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cortexmemory/cortex/internal/domain"
)

func insertExtractionLog(ctx context.Context, db execer, l *domain.ExtractionLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	parsedJSON, err := json.Marshal(l.Parsed)
	if err != nil {
		return fmt.Errorf("marshaling extraction log parsed memories: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO extraction_logs (id, agent_id, channel, exchange_preview, raw_output,
			parsed_json, written_count, deduped_count, smart_updated, latency_millis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.AgentID, l.Channel, l.ExchangePreview, l.RawOutput, string(parsedJSON),
		l.WrittenCount, l.DedupedCount, l.SmartUpdated, l.LatencyMillis, nowRFC3339())
	if err != nil {
		return fmt.Errorf("inserting extraction log: %w", err)
	}
	return nil
}
