package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/gate"
	"github.com/cortexmemory/cortex/internal/observability"
)

type recallHandler struct {
	gate    *gate.Gate
	logger  *zap.Logger
	metrics *observability.Collector
}

type recallRequest struct {
	Query     string `json:"query" validate:"required"`
	AgentID   string `json:"agent_id" validate:"required"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type recallMetaResponse struct {
	InjectedCount   int  `json:"injected_count"`
	CandidateCount  int  `json:"candidate_count"`
	VariantsUsed    int  `json:"variants_used"`
	RerankerApplied bool `json:"reranker_applied"`
}

type scoredMemoryResponse struct {
	Memory memoryResponse `json:"memory"`
	Score  float64        `json:"score"`
}

type recallResponse struct {
	Context string                  `json:"context"`
	Results []scoredMemoryResponse  `json:"results"`
	Meta    recallMetaResponse      `json:"meta"`
}

func (h *recallHandler) Recall(w http.ResponseWriter, r *http.Request) {
	var req recallRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.gate.Recall(r.Context(), gate.Request{Query: req.Query, AgentID: req.AgentID, MaxTokens: req.MaxTokens})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecallInjected.Add(float64(resp.Meta.InjectedCount))
	}

	results := make([]scoredMemoryResponse, 0, len(resp.Results))
	for _, sm := range resp.Results {
		results = append(results, scoredMemoryResponse{Memory: newMemoryResponse(sm.Memory), Score: sm.Score})
	}

	writeJSON(w, http.StatusOK, recallResponse{
		Context: resp.Context,
		Results: results,
		Meta: recallMetaResponse{
			InjectedCount:   resp.Meta.InjectedCount,
			CandidateCount:  resp.Meta.CandidateCount,
			VariantsUsed:    resp.Meta.VariantsUsed,
			RerankerApplied: resp.Meta.RerankerApplied,
		},
	})
}
