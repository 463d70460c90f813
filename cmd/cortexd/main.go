// Command cortexd boots the Cortex memory sidecar: load configuration,
// open the store, wire providers and the three core subsystems, arm
// the lifecycle scheduler, and serve the REST API until an interrupt
// asks for a graceful shutdown. Grounded on the teacher's
// cmd/api/main.go boot sequence (config → container → router → server
// → signal-driven graceful shutdown), adapted from the teacher's DI
// container to Cortex's own constructor-injection wiring.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cache"
	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/gate"
	"github.com/cortexmemory/cortex/internal/httpapi"
	"github.com/cortexmemory/cortex/internal/lifecycle"
	"github.com/cortexmemory/cortex/internal/logging"
	"github.com/cortexmemory/cortex/internal/observability"
	"github.com/cortexmemory/cortex/internal/providers"
	"github.com/cortexmemory/cortex/internal/sieve"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/decorator"
	"github.com/cortexmemory/cortex/internal/store/sqlitestore"
	"github.com/cortexmemory/cortex/internal/writer"
)

func main() {
	configPath := flag.String("config", os.Getenv("CORTEX_CONFIG"), "path to a YAML config file (optional; built-in defaults apply otherwise)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger, err := logging.New(string(cfg.Environment))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base, err := sqlitestore.Open(ctx, cfg.Storage.DBPath, cfg.Storage.WALMode, logger)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}

	// Wrap the embedded store so a degraded vector backend fails fast
	// and retries transient hiccups without ever blocking the row write
	// path (spec §4.1's independent-degradation failure semantics).
	var st store.Store = decorator.NewRetrying(
		decorator.NewCircuitBreaking(base, logger),
		3, 50*time.Millisecond, logger,
	)
	defer st.Close() //nolint:errcheck

	// Provider wiring is out of core scope (spec §1): real LLM/embedding
	// clients are thin adapters a deployer supplies. The mock providers
	// keep the sidecar usable standalone and exercise every core code
	// path identically to a real provider.
	llm := providers.NewMockLLMProvider()
	embed := providers.NewMockEmbeddingProvider(cfg.Embedding.Dimensions)

	thresholds := writer.Thresholds{
		ExactDupThreshold:   cfg.Sieve.ExactDupThreshold,
		SimilarityThreshold: cfg.Sieve.SimilarityThreshold,
	}
	w := writer.New(st, llm, embed, thresholds, cfg.Layers.Working.TTL, logger)

	profileCache, err := cache.New(1024, logger)
	if err != nil {
		logger.Fatal("initializing profile cache", zap.Error(err))
	}
	expansionCache, err := cache.New(4096, logger)
	if err != nil {
		logger.Fatal("initializing query-expansion cache", zap.Error(err))
	}

	sv := sieve.New(st, w, llm, cfg.Sieve, profileCache, logger)
	gt := gate.New(st, llm, embed, cfg.Gate, cfg.Search, expansionCache, logger)
	engine := lifecycle.New(st, w, llm, embed, cfg.Lifecycle, cfg.Layers, cfg.Sieve.ExactDupThreshold, logger)

	metrics := observability.NewCollector("cortex")

	tracer, shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "cortex",
		Environment: string(cfg.Environment),
	})
	if err != nil {
		logger.Warn("tracing disabled: failed to initialize exporter", zap.Error(err))
		tracer = nil
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing shutdown error", zap.Error(err))
			}
		}()
	}

	scheduler := lifecycle.NewScheduler(engine, logger).WithMetrics(metrics)
	if err := scheduler.Start(cfg.Lifecycle.Schedule); err != nil {
		logger.Fatal("arming lifecycle scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	configs := httpapi.NewConfigStore(cfg, logger)

	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, cfg, logger)
		if err != nil {
			logger.Fatal("starting config watcher", zap.Error(err))
		}
		defer watcher.Close() //nolint:errcheck
		watcher.OnChange(func(updated *config.Config) {
			configs.Set(updated)
		})
		scheduler.WatchConfig(watcher)
	}

	handler := httpapi.NewRouter(httpapi.Deps{
		Store:     st,
		Sieve:     sv,
		Gate:      gt,
		Lifecycle: engine,
		Embed:     embed,
		Configs:   configs,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("cortex sidecar listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("db_path", cfg.Storage.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("cortex sidecar stopped")
}
