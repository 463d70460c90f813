package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/store"
)

type searchHandler struct {
	store  store.Store
	embed  providers.EmbeddingProvider
	logger *zap.Logger
}

type searchRequest struct {
	Query   string `json:"query" validate:"required"`
	AgentID string `json:"agent_id" validate:"required"`
	K       int    `json:"k,omitempty"`
}

type searchHitResponse struct {
	MemoryID string  `json:"memory_id"`
	Score    float64 `json:"score"`
}

type searchResponse struct {
	Keyword []searchHitResponse `json:"keyword"`
	Vector  []searchHitResponse `json:"vector"`
}

// Search is the debug hybrid-search endpoint (spec §6): it runs the
// same two underlying store calls the Gate's hybrid fan-out does, but
// returns both ranked lists raw, unfused, for callers debugging recall
// quality rather than consuming formatted context.
func (h *searchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	k := req.K
	if k <= 0 {
		k = 10
	}

	kw, err := h.store.KeywordSearch(r.Context(), req.AgentID, req.Query, k)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := searchResponse{Keyword: toHits(kw)}

	if h.embed != nil && h.embed.IsAvailable() {
		vec, err := h.embed.Embed(r.Context(), req.Query)
		if err == nil {
			vecHits, err := h.store.VectorSearch(r.Context(), vec, k, store.Filter{AgentID: req.AgentID})
			if err == nil {
				resp.Vector = toHits(vecHits)
			} else {
				h.logger.Warn("debug search: vector search failed", zap.Error(err))
			}
		} else {
			h.logger.Warn("debug search: embedding failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func toHits(scored []store.ScoredID) []searchHitResponse {
	hits := make([]searchHitResponse, 0, len(scored))
	for _, s := range scored {
		hits = append(hits, searchHitResponse{MemoryID: s.ID, Score: s.Score})
	}
	return hits
}
