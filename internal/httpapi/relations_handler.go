package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
)

type relationsHandler struct {
	store  store.Store
	logger *zap.Logger
}

type createRelationRequest struct {
	AgentID    string  `json:"agent_id" validate:"required"`
	Subject    string  `json:"subject" validate:"required"`
	Predicate  string  `json:"predicate" validate:"required"`
	Object     string  `json:"object" validate:"required"`
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`
	MemoryID   string  `json:"memory_id,omitempty"`
}

func (h *relationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRelationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	pred := domain.Predicate(req.Predicate)
	if !domain.ValidPredicates[pred] {
		writeError(w, h.logger, cortexerrors.NewValidation("unknown relation predicate: "+req.Predicate))
		return
	}

	inserted, err := h.store.InsertRelation(r.Context(), &domain.Relation{
		AgentID: req.AgentID, Subject: req.Subject, Predicate: pred, Object: req.Object,
		Confidence: req.Confidence, MemoryID: req.MemoryID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRelationResponse(inserted))
}

func (h *relationsHandler) List(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, h.logger, cortexerrors.NewValidation("agent_id query parameter is required"))
		return
	}

	relations, err := h.store.ListRelations(r.Context(), agentID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	resp := make([]relationResponse, 0, len(relations))
	for _, rel := range relations {
		resp = append(resp, newRelationResponse(rel))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete expires a relation rather than hard-deleting it, matching the
// data model's Expired flag (relations never disappear outright, only
// stop being surfaced).
func (h *relationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.ExpireRelation(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
