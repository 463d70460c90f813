// Package sieve is the ingest orchestrator: it sanitizes and windows
// raw conversation exchanges, runs the fast regex channel synchronously
// before the deep LLM channel (so the deep channel's dedup search sees
// the fast channel's writes), extracts relations, and emits one audit
// log per channel run. Every write funnels through internal/writer,
// the single dedup authority; the sieve never writes to the store
// directly except to persist relations and audit logs (it also reads
// the agent profile for the deep channel). Grounded on
// the teacher's internal/service/memory orchestration idiom,
// generalized from CRUD+connection-discovery to extraction+dedup.
package sieve

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cache"
	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/signals"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/writer"
)

// profileCacheTTL bounds how long a synthesized agent profile is
// reused before the deep channel re-reads it from the store; a profile
// rewritten by the Lifecycle Engine is picked up once the cached entry
// expires.
const profileCacheTTL = 10 * time.Minute

// IngestRequest mirrors the POST /ingest and POST /flush request
// bodies (spec §6). Messages is optional; when present it takes
// precedence over UserMessage/AssistantMessage for windowing.
type IngestRequest struct {
	UserMessage      string
	AssistantMessage string
	Messages         []Message
	AgentID          string
	SessionID        string
}

// IngestResult mirrors the POST /ingest response shape (spec §6).
type IngestResult struct {
	Extracted      []writer.Outcome
	Deduplicated   int
	SmartUpdated   int
	ExtractionLogs []domain.ExtractionLog
}

// Sieve is the ingest orchestrator's dependency set.
type Sieve struct {
	store        store.Store
	writer       *writer.Writer
	llm          providers.LLMProvider
	cfg          config.Sieve
	profileCache *cache.Strings
	logger       *zap.Logger
}

// New builds a Sieve. profileCache may be nil, in which case the
// agent's synthesized profile is read from the store on every
// deep-channel call.
func New(s store.Store, w *writer.Writer, llm providers.LLMProvider, cfg config.Sieve, profileCache *cache.Strings, logger *zap.Logger) *Sieve {
	return &Sieve{store: s, writer: w, llm: llm, cfg: cfg, profileCache: profileCache, logger: logger}
}

// Ingest runs the full per-ingest pipeline (spec §4.4). A caller
// context deadline bounds the whole call; the concurrency model's
// ingest budget (≤10s) is the caller's responsibility to set.
func (s *Sieve) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	agentID := req.AgentID
	if agentID == "" {
		agentID = "default"
	}

	userText := Sanitize(req.UserMessage)
	if len(userText) < 3 && len(req.Messages) == 0 {
		return IngestResult{}, nil
	}

	exchange := s.buildExchange(req, userText)
	if exchange == "" {
		return IngestResult{}, nil
	}

	result := IngestResult{}

	// Fast channel: synchronous, cheap, must complete before the deep
	// channel's dedup search runs against the same vector index.
	if s.cfg.FastChannelEnabled {
		fastLog, err := s.runFastChannel(ctx, agentID, req.SessionID, userText, &result)
		if err != nil {
			s.logger.Warn("fast channel failed, continuing to deep channel", zap.Error(err))
		}
		if fastLog != nil {
			result.ExtractionLogs = append(result.ExtractionLogs, *fastLog)
		}
	}

	// Deep channel: skipped entirely for pure small-talk to avoid a
	// wasted LLM round trip.
	if !signals.IsSmallTalk(userText) {
		deepLog, err := s.runDeepChannelPass(ctx, agentID, req.SessionID, exchange)
		if err != nil {
			s.logger.Warn("deep channel degraded", zap.Error(err))
		}
		if deepLog != nil {
			result.ExtractionLogs = append(result.ExtractionLogs, deepLog.ExtractionLog)
			for _, o := range deepLog.outcomes {
				result.Extracted = append(result.Extracted, o)
				tallyOutcome(&result, o)
			}
		}
	}

	return result, nil
}

// Flush is the emergency-ingest entry point (POST /flush): the same
// pipeline as Ingest, invoked with a full message list just before an
// upstream agent compresses or drops its context window.
func (s *Sieve) Flush(ctx context.Context, messages []Message, agentID, sessionID string) (IngestResult, error) {
	return s.Ingest(ctx, IngestRequest{Messages: messages, AgentID: agentID, SessionID: sessionID})
}

func (s *Sieve) buildExchange(req IngestRequest, userText string) string {
	if len(req.Messages) > 0 {
		sanitized := make([]Message, 0, len(req.Messages))
		for _, m := range req.Messages {
			sanitized = append(sanitized, Message{Role: m.Role, Content: Sanitize(m.Content)})
		}
		return BuildWindow(sanitized, s.cfg.ContextMessages, s.cfg.MaxConversationChars, 200)
	}

	assistant := Sanitize(req.AssistantMessage)
	return BuildWindow([]Message{
		{Role: "user", Content: userText},
		{Role: "assistant", Content: assistant},
	}, s.cfg.ContextMessages, s.cfg.MaxConversationChars, 200)
}

func (s *Sieve) runFastChannel(ctx context.Context, agentID, sessionID, userText string, result *IngestResult) (*domain.ExtractionLog, error) {
	start := time.Now()
	sigs := signals.Detect(userText)
	if len(sigs) == 0 {
		return nil, nil
	}

	exts := make([]writer.Extraction, len(sigs))
	for i, sig := range sigs {
		exts[i] = writer.Extraction{
			Category:   sig.Category,
			Content:    sig.Content,
			Importance: sig.Importance,
			Confidence: sig.Confidence,
			Metadata:   map[string]any{"pattern": sig.Pattern},
		}
	}

	outcomes, err := s.writer.ProcessNewMemoryBatch(ctx, agentID, sessionID, "sieve_fast", exts)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		result.Extracted = append(result.Extracted, o)
		tallyOutcome(result, o)
	}

	log := &domain.ExtractionLog{
		AgentID:         agentID,
		Channel:         "fast",
		ExchangePreview: preview(userText),
		RawOutput:       "",
		WrittenCount:    countResult(outcomes, writer.ResultInserted),
		DedupedCount:    countResult(outcomes, writer.ResultSkipped),
		SmartUpdated:    countResult(outcomes, writer.ResultSmartUpdated),
		LatencyMillis:   time.Since(start).Milliseconds(),
	}
	if err := s.store.InsertExtractionLog(ctx, log); err != nil {
		s.logger.Warn("failed to write fast channel extraction log", zap.Error(err))
	}
	return log, nil
}

// deepChannelLog bundles the ExtractionLog with the writer outcomes
// produced alongside it, since the audit row itself only stores
// counts.
type deepChannelLog struct {
	domain.ExtractionLog
	outcomes []writer.Outcome
}

func (s *Sieve) runDeepChannelPass(ctx context.Context, agentID, sessionID, exchange string) (*deepChannelLog, error) {
	start := time.Now()

	profile := ""
	if s.cfg.ProfileInjection {
		profile = s.agentProfile(ctx, agentID)
	}

	extraction, raw, err := s.runDeepChannel(ctx, exchange, profile)
	if err != nil {
		return nil, err
	}

	var outcomes []writer.Outcome
	if len(extraction.Memories) > 0 {
		outcomes, err = s.writer.ProcessNewMemoryBatch(ctx, agentID, sessionID, "sieve_deep", extraction.Memories)
		if err != nil {
			return nil, err
		}
	}

	if s.cfg.RelationExtraction && len(extraction.Relations) > 0 {
		s.writeRelations(ctx, agentID, extraction.Relations, outcomes)
	}

	log := &deepChannelLog{
		ExtractionLog: domain.ExtractionLog{
			AgentID:         agentID,
			Channel:         "deep",
			ExchangePreview: preview(exchange),
			RawOutput:       raw,
			WrittenCount:    countResult(outcomes, writer.ResultInserted),
			DedupedCount:    countResult(outcomes, writer.ResultSkipped),
			SmartUpdated:    countResult(outcomes, writer.ResultSmartUpdated),
			LatencyMillis:   time.Since(start).Milliseconds(),
		},
		outcomes: outcomes,
	}
	if err := s.store.InsertExtractionLog(ctx, &log.ExtractionLog); err != nil {
		s.logger.Warn("failed to write deep channel extraction log", zap.Error(err))
	}
	return log, nil
}

// agentProfile reads the agent's synthesized profile, preferring the
// cache to avoid a store round trip on every ingest call; the cache
// entry expires on its own TTL rather than on a push invalidation,
// since a slightly stale profile degrades prompt quality, not
// correctness.
func (s *Sieve) agentProfile(ctx context.Context, agentID string) string {
	if s.profileCache != nil {
		if cached, ok := s.profileCache.Get(agentID); ok {
			return cached
		}
	}
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil || agent == nil {
		return ""
	}
	if s.profileCache != nil {
		s.profileCache.Set(agentID, agent.Profile, profileCacheTTL)
	}
	return agent.Profile
}

// writeRelations upserts every validated relation, linking it to the
// first resulting memory id from this channel's writes (spec §4.4
// step 5).
func (s *Sieve) writeRelations(ctx context.Context, agentID string, relations []domain.Relation, outcomes []writer.Outcome) {
	memoryID := ""
	for _, o := range outcomes {
		if o.Memory != nil {
			memoryID = o.Memory.ID
			break
		}
	}
	for _, r := range relations {
		rel := r
		rel.AgentID = agentID
		rel.MemoryID = memoryID
		if _, err := s.store.InsertRelation(ctx, &rel); err != nil {
			s.logger.Warn("failed to write relation", zap.Error(err))
		}
	}
}

func tallyOutcome(result *IngestResult, o writer.Outcome) {
	switch o.Result {
	case writer.ResultSkipped:
		result.Deduplicated++
	case writer.ResultSmartUpdated:
		result.SmartUpdated++
	}
}

func countResult(outcomes []writer.Outcome, r writer.Result) int {
	n := 0
	for _, o := range outcomes {
		if o.Result == r {
			n++
		}
	}
	return n
}

func preview(s string) string {
	const max = 200
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
