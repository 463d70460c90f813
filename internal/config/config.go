// Package config defines Cortex's recognized configuration surface (spec
// §6) and loads it from a YAML file layered with environment overrides,
// validated with go-playground/validator the way the teacher repo
// validates its own Config struct.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment is the deployment environment, gating log format and hot
// reload the same way the teacher's Config.Environment does.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete recognized configuration surface from spec §6.
type Config struct {
	Environment Environment `yaml:"environment" validate:"required,oneof=development staging production"`
	Server      Server      `yaml:"server" validate:"required,dive"`
	Storage     Storage     `yaml:"storage" validate:"required,dive"`
	LLM         LLM         `yaml:"llm" validate:"required,dive"`
	Embedding   Provider    `yaml:"embedding" validate:"required,dive"`
	Search      Search      `yaml:"search" validate:"required,dive"`
	Gate        Gate        `yaml:"gate" validate:"required,dive"`
	Sieve       Sieve       `yaml:"sieve" validate:"required,dive"`
	Lifecycle   Lifecycle   `yaml:"lifecycle" validate:"required,dive"`
	Layers      Layers      `yaml:"layers" validate:"required,dive"`

	// LoadedFrom records which files/env layers contributed to this
	// Config, purely informational (surfaced on GET /config).
	LoadedFrom []string `yaml:"-"`
}

// Server is the thin HTTP transport's listen configuration.
type Server struct {
	Host            string        `yaml:"host" validate:"required"`
	Port            int           `yaml:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"required,min=1s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"required,min=1s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"required,min=1s"`
}

// Storage is the embedded store's on-disk configuration (spec §6).
type Storage struct {
	DBPath  string `yaml:"db_path" validate:"required"`
	WALMode bool   `yaml:"wal_mode"`
}

// Provider describes a single LLM or embedding provider binding. APIKey and
// BaseURL are optional because a provider may resolve credentials from its
// own environment at boot (out of core scope, spec §1).
type Provider struct {
	Provider   string `yaml:"provider" validate:"required"`
	Model      string `yaml:"model" validate:"required"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions" validate:"omitempty,min=1"`
}

// LLM holds the two distinct LLM roles Cortex uses: extraction (Sieve deep
// channel, Gate expansion/rerank) and lifecycle (merge arbitration,
// compression, profile synthesis) — spec §6 keeps these independently
// configurable since operators may route them to different models.
type LLM struct {
	Extraction Provider `yaml:"extraction" validate:"required,dive"`
	Lifecycle  Provider `yaml:"lifecycle" validate:"required,dive"`
}

// Search configures the hybrid retrieval blend (spec §6).
type Search struct {
	Hybrid             bool          `yaml:"hybrid"`
	VectorWeight       float64       `yaml:"vector_weight" validate:"min=0,max=1"`
	TextWeight         float64       `yaml:"text_weight" validate:"min=0,max=1"`
	RecencyBoostWindow time.Duration `yaml:"recency_boost_window" validate:"min=1h"`
}

// Reranker configures the Gate's optional LLM reranking pass (spec §4.5
// step 7).
type Reranker struct {
	Enabled  bool    `yaml:"enabled"`
	Provider string  `yaml:"provider"`
	Weight   float64 `yaml:"weight" validate:"min=0,max=1"`
}

// Gate configures the recall orchestrator (spec §6, §4.5).
type Gate struct {
	MaxInjectionTokens int      `yaml:"max_injection_tokens" validate:"required,min=1"`
	SkipSmallTalk      bool     `yaml:"skip_small_talk"`
	QueryExpansion     bool     `yaml:"query_expansion"`
	Reranker           Reranker `yaml:"reranker" validate:"dive"`
}

// Sieve configures the ingest orchestrator and MemoryWriter thresholds
// (spec §6, §4.3, §4.4).
type Sieve struct {
	FastChannelEnabled   bool    `yaml:"fast_channel_enabled"`
	HighSignalImmediate  bool    `yaml:"high_signal_immediate"`
	ParallelChannels     bool    `yaml:"parallel_channels"`
	ProfileInjection     bool    `yaml:"profile_injection"`
	RelationExtraction   bool    `yaml:"relation_extraction"`
	SmartUpdate          bool    `yaml:"smart_update"`
	ExactDupThreshold    float64 `yaml:"exact_dup_threshold" validate:"min=0,max=1"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold" validate:"min=0,max=1"`
	ContextMessages      int     `yaml:"context_messages" validate:"min=1"`
	MaxConversationChars int     `yaml:"max_conversation_chars" validate:"min=200"`
	MaxExtractionTokens  int     `yaml:"max_extraction_tokens" validate:"min=1"`
}

// Lifecycle configures the scheduled reshaper (spec §6, §4.6).
type Lifecycle struct {
	Schedule           string  `yaml:"schedule" validate:"required"`
	PromotionThreshold float64 `yaml:"promotion_threshold" validate:"min=0,max=1"`
	ArchiveThreshold   float64 `yaml:"archive_threshold" validate:"min=0,max=1"`
	DecayLambda        float64 `yaml:"decay_lambda" validate:"min=0"`
	MaxBatchPerTick    int     `yaml:"max_batch_per_tick" validate:"min=1"`
}

// WorkingLayer, CoreLayer and ArchiveLayer carry the per-layer TTL/limit
// knobs from spec §6's `layers` block.
type WorkingLayer struct {
	TTL time.Duration `yaml:"ttl" validate:"required,min=1m"`
}

type CoreLayer struct {
	MaxEntries int `yaml:"max_entries" validate:"min=0"`
}

type ArchiveLayer struct {
	TTL                time.Duration `yaml:"ttl" validate:"required,min=1h"`
	CompressBackToCore bool          `yaml:"compress_back_to_core"`
}

type Layers struct {
	Working WorkingLayer `yaml:"working" validate:"required,dive"`
	Core    CoreLayer    `yaml:"core" validate:"dive"`
	Archive ArchiveLayer `yaml:"archive" validate:"required,dive"`
}

// Default returns the built-in defaults named throughout spec §4 and §6,
// before any file/env overlay is applied.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8088,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: Storage{
			DBPath:  "cortex.db",
			WALMode: true,
		},
		LLM: LLM{
			Extraction: Provider{Provider: "mock", Model: "mock-extraction"},
			Lifecycle:  Provider{Provider: "mock", Model: "mock-lifecycle"},
		},
		Embedding: Provider{Provider: "mock", Model: "mock-embedding", Dimensions: 256},
		Search: Search{
			Hybrid:             true,
			VectorWeight:       0.5,
			TextWeight:         0.5,
			RecencyBoostWindow: 30 * 24 * time.Hour,
		},
		Gate: Gate{
			MaxInjectionTokens: 2000,
			SkipSmallTalk:      true,
			QueryExpansion:     false,
			Reranker:           Reranker{Enabled: false, Provider: "mock", Weight: 0.5},
		},
		Sieve: Sieve{
			FastChannelEnabled:   true,
			HighSignalImmediate:  true,
			ParallelChannels:     true,
			ProfileInjection:     true,
			RelationExtraction:   true,
			SmartUpdate:          true,
			ExactDupThreshold:    0.10,
			SimilarityThreshold:  0.25,
			ContextMessages:      4,
			MaxConversationChars: 4000,
			MaxExtractionTokens:  1500,
		},
		Lifecycle: Lifecycle{
			Schedule:           "0 */6 * * *",
			PromotionThreshold: 0.72,
			ArchiveThreshold:   0.2,
			DecayLambda:        0.03,
			MaxBatchPerTick:    500,
		},
		Layers: Layers{
			Working: WorkingLayer{TTL: 48 * time.Hour},
			Core:    CoreLayer{MaxEntries: 0},
			Archive: ArchiveLayer{TTL: 90 * 24 * time.Hour, CompressBackToCore: true},
		},
	}
}

// Validate runs struct-tag validation over the full Config, mirroring the
// teacher's validator-driven config checks.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}
