package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseYAML(t *testing.T) {
	src := `
currying: false
max_call_depth: 128
cache_dir: /tmp/numen
log_level: debug
`
	cfg, err := Parse([]byte(src), "numen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Currying {
		t.Errorf("Currying = true, want false")
	}
	if cfg.MaxCallDepth != 128 {
		t.Errorf("MaxCallDepth = %d, want 128", cfg.MaxCallDepth)
	}
	if cfg.CacheDir != "/tmp/numen" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.SQLDriver != "sqlite" {
		t.Errorf("SQLDriver default lost: %q", cfg.SQLDriver)
	}
}

func TestParseTOML(t *testing.T) {
	src := `
currying = true
max_call_depth = 64
log_level = "info"
`
	cfg, err := Parse([]byte(src), "numen.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Currying || cfg.MaxCallDepth != 64 || cfg.LogLevel != "info" || cfg.CacheSize != DefaultCacheSize {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestParseDefaultsKept(t *testing.T) {
	cfg, err := Parse([]byte("{}"), "numen.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults %+v", cfg, Default())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
		want string
	}{
		{"bad depth", "a.yaml", "max_call_depth: 0", "max_call_depth"},
		{"bad level", "a.yaml", "log_level: loud", "log_level"},
		{"bad cache size", "a.toml", "cache_size = 0", "cache_size"},
		{"bad yaml", "a.yaml", "currying: [", "parsing a.yaml"},
		{"bad toml", "a.toml", "currying = ", "parsing a.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numen.yaml")
	if err := os.WriteFile(path, []byte("max_call_depth: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCallDepth != 10 {
		t.Errorf("MaxCallDepth = %d", cfg.MaxCallDepth)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSourceExt(t *testing.T) {
	if !IsSourceFile("a/b.nm") || IsSourceFile("a/b.go") {
		t.Error("IsSourceFile mismatch")
	}
	if got := TrimSourceExt("dir/prog.numen"); got != "dir/prog" {
		t.Errorf("TrimSourceExt = %q", got)
	}
}
