package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

type healthHandler struct {
	store  store.Store
	logger *zap.Logger
}

// Health reports the store's reachability. Cortex has no external
// dependency beyond its embedded store and provider clients (which
// degrade locally per spec §7), so a single ListAgents round-trip is
// sufficient to classify healthy vs degraded.
func (h *healthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListAgents(r.Context()); err != nil {
		h.logger.Warn("health check: store unreachable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type statsResponse struct {
	AgentID string         `json:"agent_id"`
	Working int            `json:"working_count"`
	Core    int            `json:"core_count"`
	Archive int            `json:"archive_count"`
	Total   int            `json:"total_count"`
}

// Stats returns live memory counts per layer for a single agent (every
// query in Cortex is agent-scoped, per internal/store's Filter).
func (h *healthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "agent_id query parameter is required"})
		return
	}

	resp := statsResponse{AgentID: agentID}
	for _, layer := range []domain.Layer{domain.LayerWorking, domain.LayerCore, domain.LayerArchive} {
		l := layer
		memories, err := h.store.ListMemories(r.Context(), store.Filter{AgentID: agentID, Layer: &l, ExcludeSuperseded: true}, store.Sort{}, store.Page{Limit: 100000})
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		switch layer {
		case domain.LayerWorking:
			resp.Working = len(memories)
		case domain.LayerCore:
			resp.Core = len(memories)
		case domain.LayerArchive:
			resp.Archive = len(memories)
		}
	}
	resp.Total = resp.Working + resp.Core + resp.Archive
	writeJSON(w, http.StatusOK, resp)
}
