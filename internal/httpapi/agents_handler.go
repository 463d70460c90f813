package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

type agentsHandler struct {
	store   store.Store
	configs *ConfigStore
	logger  *zap.Logger
}

type upsertAgentRequest struct {
	ID     string         `json:"id" validate:"required"`
	Name   string         `json:"name" validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

func (h *agentsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertAgentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	agent, err := h.store.UpsertAgent(r.Context(), &domain.Agent{ID: req.ID, Name: req.Name, Config: req.Config})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newAgentResponse(agent))
}

func (h *agentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if agent == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, newAgentResponse(agent))
}

func (h *agentsHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, newAgentResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConfig returns the global configuration with the agent's own
// per-agent overrides (domain.Agent.Config) layered on top, implementing
// spec §6's "merged effective configuration".
func (h *agentsHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if agent == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "agent not found"})
		return
	}

	raw, err := yaml.Marshal(h.configs.Current())
	if err != nil {
		writeError(w, h.logger, cortexerrors.NewInvariant("marshaling configuration: "+err.Error()))
		return
	}
	var merged map[string]interface{}
	if err := yaml.Unmarshal(raw, &merged); err != nil {
		writeError(w, h.logger, cortexerrors.NewInvariant("re-decoding configuration: "+err.Error()))
		return
	}
	for k, v := range agent.Config {
		merged[k] = v
	}
	writeJSON(w, http.StatusOK, merged)
}
