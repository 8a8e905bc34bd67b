// Package config loads rebcore.yaml, the process-wide tuning knobs
// for the arena ballast, the GC's fuzz-recycle interval, the
// trampoline's max level depth, and the parse dialect's trace toggle.
// Its shape follows the teacher's ext.Config/ext.LoadConfig pair
// (funxy.yaml's dependency manifest), narrowed to rebcore's own
// runtime settings rather than a Go-binding manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the teacher's hardcoded VERSION/BuildDate constants
// in cmd/sentra/main.go: plain package-level values a binary can ship
// with no config file present at all.
const (
	DefaultBallastStubs      = 4096 // matches arena.DefaultBallast
	DefaultFuzzRecycleEvery  = 4096 // loaded into FuzzRecycleEvery; see its comment
	DefaultMaxLevelDepth     = 10000
	DefaultParseTraceEnabled = false
)

// Config is the top-level rebcore.yaml document.
type Config struct {
	// BallastStubs sizes the arena's ballast counter (spec.md §4.6
	// "Arena.Depleted — the ballast-triggered cycle"): GC only runs
	// once this many stub allocations have happened since the last
	// collection (or since startup).
	BallastStubs int `yaml:"ballast_stubs,omitempty"`

	// FuzzRecycleEvery is the stress-testing recycle interval, in
	// trampoline dispatches. It is loaded and validated here, but
	// nothing in rebcore reads it: the trampoline and the collector
	// never force a collection cycle on a tick count, only on ballast
	// depletion.
	FuzzRecycleEvery int `yaml:"fuzz_recycle_every,omitempty"`

	// MaxLevelDepth is the level-stack depth limit. It is loaded and
	// validated here, but nothing in rebcore reads it: the trampoline
	// does not cap Trampoline.Depth().
	MaxLevelDepth int `yaml:"max_level_depth,omitempty"`

	// ParseTrace is the parse-dialect trace toggle. It is loaded here,
	// but nothing in rebcore reads it: the parse engine writes no
	// per-rule log lines.
	ParseTrace bool `yaml:"parse_trace,omitempty"`
}

// Default returns a Config populated with rebcore's built-in
// constants, the configuration a binary runs with when no
// rebcore.yaml is found.
func Default() *Config {
	return &Config{
		BallastStubs:     DefaultBallastStubs,
		FuzzRecycleEvery: DefaultFuzzRecycleEvery,
		MaxLevelDepth:    DefaultMaxLevelDepth,
		ParseTrace:       DefaultParseTraceEnabled,
	}
}

// Load reads and parses a rebcore.yaml file, filling any field the
// file omits with Default's value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses rebcore.yaml content from bytes. path is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find searches for rebcore.yaml starting from dir and walking up to
// parent directories, the way the teacher's ext.FindConfig locates
// funxy.yaml. Returns an empty path and nil error when none is found.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "rebcore.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		candidate = filepath.Join(dir, "rebcore.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadOrDefault finds and loads rebcore.yaml under dir, falling back
// to Default() if none exists.
func LoadOrDefault(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate(path string) error {
	if c.BallastStubs < 0 {
		return fmt.Errorf("%s: ballast_stubs must not be negative", path)
	}
	if c.FuzzRecycleEvery < 0 {
		return fmt.Errorf("%s: fuzz_recycle_every must not be negative", path)
	}
	if c.MaxLevelDepth <= 0 {
		return fmt.Errorf("%s: max_level_depth must be positive", path)
	}
	return nil
}
