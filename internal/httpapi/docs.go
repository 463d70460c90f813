package httpapi

// This file carries swaggo/swag OpenAPI annotations for the core routes,
// grounded on the teacher's separate _docs.go convention
// (interfaces/http/rest/handlers/*_docs.go).

// Recall retrieves and formats relevant memories for a query.
// @Summary Recall memories
// @Description Cleans the query, skips small talk, optionally expands it, runs hybrid search, fuses, reranks, and formats a token-budgeted context block
// @Tags recall
// @Accept json
// @Produce json
// @Param request body recallRequest true "Recall request"
// @Success 200 {object} recallResponse
// @Failure 400 {object} errorBody
// @Router /api/v1/recall [post]

// Ingest extracts and writes memories from one conversation turn.
// @Summary Ingest a conversation turn
// @Description Runs the fast regex channel synchronously then the deep LLM channel, deduplicating through the four-tier matcher
// @Tags ingest
// @Accept json
// @Produce json
// @Param request body ingestRequest true "Ingest request"
// @Success 200 {object} ingestResponse
// @Failure 400 {object} errorBody
// @Router /api/v1/ingest [post]

// Flush runs an emergency ingest over a full message list before
// context compression drops it.
// @Summary Flush a full message list
// @Tags ingest
// @Accept json
// @Produce json
// @Param request body ingestRequest true "Flush request"
// @Success 200 {object} ingestResponse
// @Failure 400 {object} errorBody
// @Router /api/v1/flush [post]

// Search runs raw hybrid keyword+vector search without fusion, for
// debugging recall quality.
// @Summary Debug hybrid search
// @Tags search
// @Accept json
// @Produce json
// @Param request body searchRequest true "Search request"
// @Success 200 {object} searchResponse
// @Router /api/v1/search [post]

// LifecycleRun triggers an immediate lifecycle pass.
// @Summary Run the lifecycle engine
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param request body runLifecycleRequest false "Run options"
// @Success 200 {object} lifecycleReportResponse
// @Router /api/v1/lifecycle/run [post]

// LifecyclePreview reports what the next tick would do without writing.
// @Summary Preview the lifecycle engine's next pass
// @Tags lifecycle
// @Produce json
// @Success 200 {object} lifecycleReportResponse
// @Router /api/v1/lifecycle/preview [get]
