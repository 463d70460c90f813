package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/observability"
	"github.com/cortexmemory/cortex/internal/sieve"
)

type ingestHandler struct {
	sieve   *sieve.Sieve
	logger  *zap.Logger
	metrics *observability.Collector
}

func (h *ingestHandler) record(result sieve.IngestResult) {
	if h.metrics == nil {
		return
	}
	written := 0
	for _, o := range result.Extracted {
		if o.Memory != nil {
			written++
		}
	}
	h.metrics.IngestExtracted.Add(float64(written))
	h.metrics.IngestDeduplicated.Add(float64(result.Deduplicated))
	h.metrics.IngestSmartUpdated.Add(float64(result.SmartUpdated))
}

type messageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type ingestRequest struct {
	UserMessage      string       `json:"user_message,omitempty"`
	AssistantMessage string       `json:"assistant_message,omitempty"`
	Messages         []messageDTO `json:"messages,omitempty"`
	AgentID          string       `json:"agent_id" validate:"required"`
	SessionID        string       `json:"session_id,omitempty"`
}

type extractionLogResponse struct {
	ID              string `json:"id"`
	Channel         string `json:"channel"`
	ExchangePreview string `json:"exchange_preview"`
	WrittenCount    int    `json:"written_count"`
	DedupedCount    int    `json:"deduped_count"`
	SmartUpdated    int    `json:"smart_updated"`
}

type ingestResponse struct {
	Extracted      []scoredMemoryResponse  `json:"extracted"`
	Deduplicated   int                     `json:"deduplicated"`
	SmartUpdated   int                     `json:"smart_updated"`
	ExtractionLogs []extractionLogResponse `json:"extraction_logs"`
}

func (req ingestRequest) toSieveRequest() sieve.IngestRequest {
	messages := make([]sieve.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, sieve.Message{Role: m.Role, Content: m.Content})
	}
	return sieve.IngestRequest{
		UserMessage: req.UserMessage, AssistantMessage: req.AssistantMessage,
		Messages: messages, AgentID: req.AgentID, SessionID: req.SessionID,
	}
}

func toIngestResponse(result sieve.IngestResult) ingestResponse {
	extracted := make([]scoredMemoryResponse, 0, len(result.Extracted))
	for _, o := range result.Extracted {
		if o.Memory == nil {
			continue
		}
		extracted = append(extracted, scoredMemoryResponse{Memory: newMemoryResponse(o.Memory)})
	}
	logs := make([]extractionLogResponse, 0, len(result.ExtractionLogs))
	for _, l := range result.ExtractionLogs {
		logs = append(logs, extractionLogResponse{
			ID: l.ID, Channel: l.Channel, ExchangePreview: l.ExchangePreview,
			WrittenCount: l.WrittenCount, DedupedCount: l.DedupedCount, SmartUpdated: l.SmartUpdated,
		})
	}
	return ingestResponse{Extracted: extracted, Deduplicated: result.Deduplicated, SmartUpdated: result.SmartUpdated, ExtractionLogs: logs}
}

func (h *ingestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.sieve.Ingest(r.Context(), req.toSieveRequest())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.record(result)
	writeJSON(w, http.StatusOK, toIngestResponse(result))
}

// Flush implements spec §6's "emergency ingest of full message list
// before context compression": it runs every message through the Sieve
// in one pass rather than the single user/assistant-turn path.
func (h *ingestHandler) Flush(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, h.logger, cortexerrors.NewValidation("messages is required for flush"))
		return
	}

	sieveReq := req.toSieveRequest()
	result, err := h.sieve.Flush(r.Context(), sieveReq.Messages, req.AgentID, req.SessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.record(result)
	writeJSON(w, http.StatusOK, toIngestResponse(result))
}
