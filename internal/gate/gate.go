// Package gate is the recall orchestrator: clean query, small-talk
// gate, optional LLM query expansion, per-variant hybrid BM25+vector
// search, RRF fusion, post-fusion scoring, cross-variant merge with a
// multi-hit boost, optional LLM rerank blend, priority injection, and
// token-budgeted formatting. Grounded on the teacher's
// internal/service/memory query-orchestration idiom (one package owns
// the multi-step read pipeline, delegating persistence to a narrower
// store interface), generalized from simple CRUD+connection-lookup to
// the hybrid-search-and-fuse pipeline spec §4.5 describes.
package gate

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cache"
	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/signals"
	"github.com/cortexmemory/cortex/internal/sieve"
	"github.com/cortexmemory/cortex/internal/store"
)

// Request mirrors the POST /recall request body (spec §6).
type Request struct {
	Query     string
	AgentID   string
	MaxTokens int
}

// Response mirrors the POST /recall response body (spec §6).
type Response struct {
	Context string
	Results []ScoredMemory
	Meta    Meta
}

// Meta carries the observability fields spec §6 lists alongside the
// formatted context.
type Meta struct {
	InjectedCount   int
	CandidateCount  int
	VariantsUsed    int
	RerankerApplied bool
}

// ScoredMemory is one candidate carried through fusion, scoring, and
// formatting, with its final score attached for inspection by callers.
type ScoredMemory struct {
	Memory     *domain.Memory
	Score      float64
	VariantHit int
}

// Gate is the recall orchestrator's dependency set.
type Gate struct {
	store          store.Store
	llm            providers.LLMProvider
	embed          providers.EmbeddingProvider
	cfg            config.Gate
	search         config.Search
	expansionCache *cache.Strings
	logger         *zap.Logger
}

// New builds a Gate. expansionCache may be nil, in which case query
// expansion results are recomputed on every call.
func New(s store.Store, llm providers.LLMProvider, embed providers.EmbeddingProvider, cfg config.Gate, search config.Search, expansionCache *cache.Strings, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{store: s, llm: llm, embed: embed, cfg: cfg, search: search, expansionCache: expansionCache, logger: logger}
}

// Recall implements spec §4.5 steps 1-9.
func (g *Gate) Recall(ctx context.Context, req Request) (Response, error) {
	agentID := req.AgentID
	if agentID == "" {
		agentID = "default"
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.cfg.MaxInjectionTokens
	}

	query := sieve.Sanitize(req.Query)
	if query == "" {
		return Response{}, nil
	}
	if g.cfg.SkipSmallTalk && signals.IsSmallTalk(query) {
		return Response{}, nil
	}

	variants := g.expandQuery(ctx, agentID, query)

	pool, err := g.searchVariants(ctx, agentID, variants)
	if err != nil {
		return Response{}, err
	}
	if len(pool) == 0 {
		return Response{Meta: Meta{VariantsUsed: len(variants)}}, nil
	}

	scored, err := g.scoreAndMerge(ctx, pool)
	if err != nil {
		return Response{}, err
	}

	rerankerApplied := false
	if g.cfg.Reranker.Enabled {
		scored = g.rerank(ctx, query, scored)
		rerankerApplied = true
	}

	ordered := prioritize(scored)

	contextStr, injected := g.format(ctx, ordered, maxTokens)

	return Response{
		Context: contextStr,
		Results: ordered,
		Meta: Meta{
			InjectedCount:   injected,
			CandidateCount:  len(ordered),
			VariantsUsed:    len(variants),
			RerankerApplied: rerankerApplied,
		},
	}, nil
}

const (
	layerWeightCore    = 1.0
	layerWeightWorking = 0.8
	layerWeightArchive = 0.4

	rerankDefaultWeight = 0.5
	rrfK                = 60
	poolTargetSize      = 30
)

func layerWeight(l domain.Layer) float64 {
	switch l {
	case domain.LayerCore:
		return layerWeightCore
	case domain.LayerWorking:
		return layerWeightWorking
	case domain.LayerArchive:
		return layerWeightArchive
	default:
		return layerWeightWorking
	}
}

func recencyBoost(updatedAt time.Time, window time.Duration) float64 {
	if window <= 0 {
		return 1.0
	}
	age := time.Since(updatedAt)
	if age >= window {
		return 1.0
	}
	frac := 1.0 - float64(age)/float64(window)
	return 1.0 + 0.3*frac
}

func accessBoost(accessCount int64) float64 {
	if accessCount <= 0 {
		return 1.0
	}
	return 1.0 + 0.05*math.Log1p(float64(accessCount))
}
