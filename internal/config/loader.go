package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GC2_CONFIG is set
//  3. env (prefix GC2_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GC2_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoadError(err)
		}
	}

	// Environment variables: GC2_LOG_LEVEL, GC2_METRICS_ADDR, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GC2_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "gc2_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoadError(err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoadError(err)
	}

	if cfg.MetricsAddr == "" {
		return nil, ErrEmptyMetricsAddr
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = New().EventBufferSize
	}
	return &cfg, nil
}
