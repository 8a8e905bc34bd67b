package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFillsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Parse([]byte(`parse_trace: true`), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.ParseTrace {
		t.Error("expected parse_trace to be true")
	}
	if cfg.BallastStubs != DefaultBallastStubs {
		t.Errorf("ballast_stubs = %d, want default %d", cfg.BallastStubs, DefaultBallastStubs)
	}
	if cfg.MaxLevelDepth != DefaultMaxLevelDepth {
		t.Errorf("max_level_depth = %d, want default %d", cfg.MaxLevelDepth, DefaultMaxLevelDepth)
	}
}

func TestParseOverridesAllFields(t *testing.T) {
	yaml := `
ballast_stubs: 1024
fuzz_recycle_every: 16
max_level_depth: 500
parse_trace: true
`
	cfg, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BallastStubs != 1024 {
		t.Errorf("ballast_stubs = %d, want 1024", cfg.BallastStubs)
	}
	if cfg.FuzzRecycleEvery != 16 {
		t.Errorf("fuzz_recycle_every = %d, want 16", cfg.FuzzRecycleEvery)
	}
	if cfg.MaxLevelDepth != 500 {
		t.Errorf("max_level_depth = %d, want 500", cfg.MaxLevelDepth)
	}
}

func TestParseRejectsNonPositiveMaxLevelDepth(t *testing.T) {
	_, err := Parse([]byte(`max_level_depth: 0`), "test.yaml")
	if err == nil {
		t.Fatal("expected an error for max_level_depth: 0")
	}
}

func TestParseRejectsNegativeBallast(t *testing.T) {
	_, err := Parse([]byte(`ballast_stubs: -1`), "test.yaml")
	if err == nil {
		t.Fatal("expected an error for a negative ballast_stubs")
	}
}

func TestFindLocatesConfigInParentDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "rebcore.yaml"), []byte(`max_level_depth: 42`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	path, err := Find(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path == "" {
		t.Fatal("expected to find rebcore.yaml in an ancestor directory")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading found config: %v", err)
	}
	if cfg.MaxLevelDepth != 42 {
		t.Errorf("max_level_depth = %d, want 42", cfg.MaxLevelDepth)
	}
}

func TestLoadOrDefaultFallsBackWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxLevelDepth != DefaultMaxLevelDepth {
		t.Errorf("max_level_depth = %d, want default %d", cfg.MaxLevelDepth, DefaultMaxLevelDepth)
	}
}
