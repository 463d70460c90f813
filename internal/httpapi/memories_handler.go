package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

type memoriesHandler struct {
	store  store.Store
	logger *zap.Logger
}

type createMemoryRequest struct {
	AgentID    string  `json:"agent_id" validate:"required"`
	Layer      string  `json:"layer" validate:"required,oneof=working core archive"`
	Category   string  `json:"category" validate:"required"`
	Content    string  `json:"content" validate:"required,min=3"`
	Importance float64 `json:"importance" validate:"min=0,max=1"`
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`
	Source     string  `json:"source,omitempty"`
	IsPinned   bool    `json:"is_pinned,omitempty"`
}

type updateMemoryRequest struct {
	Content    *string  `json:"content,omitempty"`
	Importance *float64 `json:"importance,omitempty" validate:"omitempty,min=0,max=1"`
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
	IsPinned   *bool    `json:"is_pinned,omitempty"`
}

// Create handles POST /memories. The Sieve is the intended write path
// for conversation-derived memories (spec §4.3's dedup authority); this
// endpoint exists for direct, already-deduplicated writes such as a
// management UI pinning a fact.
func (h *memoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	cat := domain.Category(req.Category)
	if !domain.ValidCategories[cat] {
		writeError(w, h.logger, cortexerrors.NewValidation("unknown memory category: "+req.Category))
		return
	}

	spec := &domain.Memory{
		AgentID: req.AgentID, Layer: domain.Layer(req.Layer), Category: cat, Content: req.Content,
		Importance: req.Importance, Confidence: req.Confidence, DecayScore: 1.0,
		Source: req.Source, IsPinned: req.IsPinned,
	}
	if spec.Source == "" {
		spec.Source = "api"
	}
	if spec.Layer == domain.LayerWorking {
		writeError(w, h.logger, cortexerrors.NewValidation("direct writes to the working layer must go through /ingest, which sets its own expiry"))
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	inserted, err := h.store.InsertMemory(r.Context(), spec)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newMemoryResponse(inserted))
}

func (h *memoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := h.store.GetMemory(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, newMemoryResponse(m))
}

func (h *memoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, h.logger, cortexerrors.NewValidation("agent_id query parameter is required"))
		return
	}

	filter := store.Filter{AgentID: agentID, ExcludeSuperseded: true}
	if layer := r.URL.Query().Get("layer"); layer != "" {
		l := domain.Layer(layer)
		filter.Layer = &l
	}

	memories, err := h.store.ListMemories(r.Context(), filter, store.Sort{Field: "updated_at", Descending: true}, store.Page{Limit: 200})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := make([]memoryResponse, 0, len(memories))
	for _, m := range memories {
		resp = append(resp, newMemoryResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *memoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateMemoryRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	patch := store.MemoryPatch{Content: req.Content, Importance: req.Importance, Confidence: req.Confidence, IsPinned: req.IsPinned}
	if err := h.store.UpdateMemory(r.Context(), id, patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	m, err := h.store.GetMemory(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newMemoryResponse(m))
}

func (h *memoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMemory(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
