// Package config layers run configuration from defaults, an optional
// archscope.yml file, ARCHSCOPE_-prefixed environment variables, and command
// line flags, in increasing priority.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all settings for one analysis run.
type Config struct {
	Root        string   `koanf:"root"`
	Output      string   `koanf:"output"`
	Format      string   `koanf:"format"` // json or mermaid
	Ignore      []string `koanf:"ignore"`
	Languages   []string `koanf:"languages"`
	MaxDepth    int      `koanf:"max-depth"`
	MaxFileSize int64    `koanf:"max-file-size"`
	MaxFiles    int      `koanf:"max-files"`
	Workers     int      `koanf:"workers"`
	MaxCycles   int      `koanf:"max-cycles"`
	StoreDir    string   `koanf:"store"`
	Verbose     bool     `koanf:"verbose"`
	LogJSON     bool     `koanf:"log-json"`
}

// configFiles are probed in order; the first that exists wins.
var configFiles = []string{"archscope.yml", "archscope.yaml"}

// Load builds a Config in priority order: flags > env > config file >
// defaults. f may be nil.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"root":          ".",
		"output":        "",
		"format":        "json",
		"ignore":        []string{},
		"languages":     []string{},
		"max-depth":     0,
		"max-file-size": 0,
		"max-files":     0,
		"workers":       0,
		"max-cycles":    0,
		"store":         "",
		"verbose":       false,
		"log-json":      false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Config file is optional; a missing file is not an error.
	for _, name := range configFiles {
		if err := k.Load(file.Provider(name), yaml.Parser()); err == nil {
			break
		}
	}

	// ARCHSCOPE_MAX_FILES=100 -> max-files. Environment names use single
	// underscores where keys use dashes.
	if err := k.Load(env.Provider("ARCHSCOPE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "ARCHSCOPE_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Format != "json" && cfg.Format != "mermaid" {
		return nil, fmt.Errorf("unknown output format %q", cfg.Format)
	}
	return &cfg, nil
}

// mapProvider feeds a plain map into koanf as the defaults layer.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
