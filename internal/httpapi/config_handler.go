package httpapi

import (
	"io"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cortexmemory/cortex/internal/config"
	"github.com/cortexmemory/cortex/internal/cortexerrors"
)

// ConfigStore holds the live, possibly hot-reloaded configuration behind
// an atomic pointer so GET/PATCH /config can read and update it without a
// lock on the request path. It starts with the config loaded at boot,
// is replaced by the config file watcher on reload, and accepts a
// narrow set of live edits through PATCH /config.
type ConfigStore struct {
	current atomic.Pointer[config.Config]
	logger  *zap.Logger
}

func NewConfigStore(initial *config.Config, logger *zap.Logger) *ConfigStore {
	cs := &ConfigStore{logger: logger}
	cs.current.Store(initial)
	return cs
}

func (cs *ConfigStore) Current() *config.Config {
	return cs.current.Load()
}

// Set atomically swaps the stored config, used by config.Watcher.OnChange
// when the on-disk file changes underneath a running process.
func (cs *ConfigStore) Set(cfg *config.Config) {
	cs.current.Store(cfg)
}

type configHandler struct {
	configs *ConfigStore
	logger  *zap.Logger
}

func (h *configHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.configs.Current()
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		writeError(w, h.logger, cortexerrors.NewInvariant("marshaling configuration: "+err.Error()))
		return
	}
	var asMap map[string]interface{}
	if err := yaml.Unmarshal(raw, &asMap); err != nil {
		writeError(w, h.logger, cortexerrors.NewInvariant("re-decoding configuration: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, asMap)
}

// Patch applies a partial YAML document onto the current configuration
// (same format Load parses on boot), validates the result, and stores it
// if valid. Unset fields are left untouched by yaml.Unmarshal's
// merge-onto-existing-struct behavior.
func (h *configHandler) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.logger, cortexerrors.NewValidation("reading request body: "+err.Error()))
		return
	}

	next := *h.configs.Current()
	if err := yaml.Unmarshal(body, &next); err != nil {
		writeError(w, h.logger, cortexerrors.NewValidation("parsing configuration patch: "+err.Error()))
		return
	}
	if err := config.Validate(&next); err != nil {
		writeError(w, h.logger, cortexerrors.NewValidation("invalid configuration: "+err.Error()))
		return
	}

	h.configs.Set(&next)
	h.logger.Info("configuration updated via PATCH /config")
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
