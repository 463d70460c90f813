package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/lifecycle"
	"github.com/cortexmemory/cortex/internal/observability"
)

type lifecycleHandler struct {
	engine  *lifecycle.Engine
	logger  *zap.Logger
	metrics *observability.Collector
}

type runLifecycleRequest struct {
	DryRun bool `json:"dry_run,omitempty"`
}

type lifecycleReportResponse struct {
	DryRun              bool `json:"dry_run"`
	AgentsProcessed     int  `json:"agents_processed"`
	Decayed             int  `json:"decayed"`
	Promoted            int  `json:"promoted"`
	Merged              int  `json:"merged"`
	Archived            int  `json:"archived"`
	Compressed          int  `json:"compressed"`
	Deleted             int  `json:"deleted"`
	ProfilesSynthesized int  `json:"profiles_synthesized"`
}

func toLifecycleReportResponse(r lifecycle.Report) lifecycleReportResponse {
	return lifecycleReportResponse{
		DryRun: r.DryRun, AgentsProcessed: r.AgentsProcessed, Decayed: r.Decayed, Promoted: r.Promoted,
		Merged: r.Merged, Archived: r.Archived, Compressed: r.Compressed, Deleted: r.Deleted,
		ProfilesSynthesized: r.ProfilesSynthesized,
	}
}

// Run triggers an immediate lifecycle pass (spec §6's POST
// /lifecycle/run), independent of the cron schedule.
func (h *lifecycleHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runLifecycleRequest
	// Body is optional; an empty POST means dry_run=false.
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, cortexerrors.NewValidation("invalid request body: "+err.Error()))
			return
		}
	}

	report, err := h.engine.Run(r.Context(), req.DryRun)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !req.DryRun && h.metrics != nil {
		h.metrics.LifecycleTicks.Inc()
	}
	writeJSON(w, http.StatusOK, toLifecycleReportResponse(report))
}

// Preview runs the engine in dry-run mode (spec §6's GET
// /lifecycle/preview), reporting what the next real tick would do
// without writing anything.
func (h *lifecycleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Run(r.Context(), true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toLifecycleReportResponse(report))
}
