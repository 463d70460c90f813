package lifecycle

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/observability"
)

// Scheduler arms the Engine on a cron schedule (spec §6's
// lifecycle.schedule), re-arming on config hot-reload and, on shutdown,
// stopping the cron and waiting for (not cancelling) any in-flight tick.
// Grounded on the teacher's own use of
// robfig/cron for its background compaction job.
type Scheduler struct {
	engine  *Engine
	logger  *zap.Logger
	metrics *observability.Collector

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler builds an unarmed Scheduler for engine; Start arms it
// with a schedule.
func NewScheduler(engine *Engine, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{engine: engine, logger: logger}
}

// WithMetrics attaches a Collector so every cron-driven tick is
// counted alongside ticks triggered manually through POST
// /lifecycle/run. Returns the Scheduler for chaining at construction.
func (s *Scheduler) WithMetrics(m *observability.Collector) *Scheduler {
	s.metrics = m
	return s
}

// Start arms the cron job on schedule. Safe to call once at boot.
func (s *Scheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arm(schedule)
}

// arm must be called with s.mu held.
func (s *Scheduler) arm(schedule string) error {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.cron = nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		s.runTick()
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.running = true
	return nil
}

func (s *Scheduler) runTick() {
	report, err := s.engine.Run(context.Background(), false)
	if err != nil {
		s.logger.Error("lifecycle tick failed", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.LifecycleTicks.Inc()
	}
	s.logger.Info("lifecycle tick complete",
		zap.Int("agents", report.AgentsProcessed),
		zap.Int("decayed", report.Decayed),
		zap.Int("promoted", report.Promoted),
		zap.Int("merged", report.Merged),
		zap.Int("archived", report.Archived),
		zap.Int("compressed", report.Compressed),
		zap.Int("deleted", report.Deleted),
		zap.Int("profiles_synthesized", report.ProfilesSynthesized),
	)
}

// WatchConfig re-arms the schedule whenever the lifecycle.schedule field
// changes in a hot-reloaded config.
func (s *Scheduler) WatchConfig(w *config.Watcher) {
	current := ""
	if w.Current() != nil {
		current = w.Current().Lifecycle.Schedule
	}
	w.OnChange(func(cfg *config.Config) {
		if cfg.Lifecycle.Schedule == current {
			return
		}
		current = cfg.Lifecycle.Schedule
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.arm(current); err != nil {
			s.logger.Error("lifecycle: failed to re-arm schedule", zap.String("schedule", current), zap.Error(err))
		} else {
			s.logger.Info("lifecycle: schedule updated", zap.String("schedule", current))
		}
	})
}

// Stop cancels the cron job and waits for any in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.running = false
}
