package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file on top of Default(), then validates the
// result. path may be empty, in which case the built-in defaults plus
// environment overrides are returned (the same "sensible defaults with
// overrides" the teacher's loader documents). A path that does not
// exist yields the built-in defaults without environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				cfg.LoadedFrom = append(cfg.LoadedFrom, "defaults-only (no file at "+path+")")
				return finish(cfg)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	applyEnvOverrides(cfg)
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers a handful of operationally common environment
// variables over the file-loaded config, mirroring the teacher's
// environment-over-file precedence. Provider API keys are deliberately not
// read here: credential discovery belongs to the provider layer (out of
// core scope, spec §1).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CORTEX_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CORTEX_ENV"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("CORTEX_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}
