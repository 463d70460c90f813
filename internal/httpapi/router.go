// Package httpapi is the thin REST transport over Cortex's core (spec
// §6): one chi.Router exposing /recall, /ingest, /flush, /search,
// CRUD over memories/relations/agents, lifecycle triggers, health,
// stats, and runtime configuration. Every handler decodes and
// validates a request DTO and calls straight into the Sieve, Gate,
// Lifecycle Engine, or Store; no business logic lives here. Grounded
// on the teacher's interfaces/http/rest.Router (chi.Router, versioned
// under /api/v1, CORS, request-ID, and structured-logging middleware).
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/gate"
	"github.com/cortexmemory/cortex/internal/lifecycle"
	"github.com/cortexmemory/cortex/internal/observability"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/sieve"
	"github.com/cortexmemory/cortex/internal/store"
)

// Deps bundles every collaborator the router wires into handlers.
// Metrics and Tracer are optional: a nil Collector/Tracer skips the
// corresponding middleware, which keeps the router usable from tests
// that have no interest in standing up a metrics registry.
type Deps struct {
	Store     store.Store
	Sieve     *sieve.Sieve
	Gate      *gate.Gate
	Lifecycle *lifecycle.Engine
	Embed     providers.EmbeddingProvider
	Configs   *ConfigStore
	Logger    *zap.Logger
	Metrics   *observability.Collector
	Tracer    trace.Tracer
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	recall := &recallHandler{gate: d.Gate, logger: logger, metrics: d.Metrics}
	ingest := &ingestHandler{sieve: d.Sieve, logger: logger, metrics: d.Metrics}
	search := &searchHandler{store: d.Store, embed: d.Embed, logger: logger}
	memories := &memoriesHandler{store: d.Store, logger: logger}
	relations := &relationsHandler{store: d.Store, logger: logger}
	agents := &agentsHandler{store: d.Store, configs: d.Configs, logger: logger}
	lifecycleH := &lifecycleHandler{engine: d.Lifecycle, logger: logger, metrics: d.Metrics}
	health := &healthHandler{store: d.Store, logger: logger}
	cfg := &configHandler{configs: d.Configs, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Logger(logger))
	if d.Tracer != nil {
		r.Use(Tracing(d.Tracer))
	}
	if d.Metrics != nil {
		r.Use(Metrics(d.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", health.Health)
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Handler().ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recall", recall.Recall)
		r.Post("/ingest", ingest.Ingest)
		r.Post("/flush", ingest.Flush)
		r.Post("/search", search.Search)

		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memories.Create)
			r.Get("/", memories.List)
			r.Get("/{id}", memories.Get)
			r.Patch("/{id}", memories.Update)
			r.Delete("/{id}", memories.Delete)
		})

		r.Route("/relations", func(r chi.Router) {
			r.Post("/", relations.Create)
			r.Get("/", relations.List)
			r.Delete("/{id}", relations.Delete)
		})

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", agents.Upsert)
			r.Get("/", agents.List)
			r.Get("/{id}", agents.Get)
			r.Get("/{id}/config", agents.GetConfig)
		})

		r.Route("/lifecycle", func(r chi.Router) {
			r.Post("/run", lifecycleH.Run)
			r.Get("/preview", lifecycleH.Preview)
		})

		r.Get("/stats", health.Stats)

		r.Route("/config", func(r chi.Router) {
			r.Get("/", cfg.Get)
			r.Patch("/", cfg.Patch)
		})
	})

	return r
}
