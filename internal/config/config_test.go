package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultDBPath(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")

		path := DefaultDBPath()
		expected := "/custom/cache/imagepress/jobs.db"
		if path != expected {
			t.Errorf("DefaultDBPath() = %q, want %q", path, expected)
		}
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")

		path := DefaultDBPath()
		if !strings.HasSuffix(path, filepath.Join(".cache", "imagepress", "jobs.db")) {
			t.Errorf("DefaultDBPath() = %q, want suffix .cache/imagepress/jobs.db", path)
		}
	})
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
port = 9090
output_dir = "/srv/imagepress/output"
fetch_timeout = "45s"
max_jobs = 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := &Config{
		Port:             8080,
		DBPath:           "keep.db",
		OutputDir:        "output",
		MaxJobs:          4,
		FetchConcurrency: 8,
		FetchTimeout:     30 * time.Second,
	}
	if err := ApplyFile(path, cfg); err != nil {
		t.Fatalf("ApplyFile() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.OutputDir != "/srv/imagepress/output" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/srv/imagepress/output")
	}
	if cfg.FetchTimeout != 45*time.Second {
		t.Errorf("FetchTimeout = %v, want 45s", cfg.FetchTimeout)
	}
	if cfg.MaxJobs != 2 {
		t.Errorf("MaxJobs = %d, want 2", cfg.MaxJobs)
	}

	// Fields absent from the file are untouched
	if cfg.DBPath != "keep.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "keep.db")
	}
	if cfg.FetchConcurrency != 8 {
		t.Errorf("FetchConcurrency = %d, want 8", cfg.FetchConcurrency)
	}
}

func TestApplyFile_BadTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte(`fetch_timeout = "soon"`), 0644)

	if err := ApplyFile(path, &Config{}); err == nil {
		t.Error("ApplyFile() error = nil, want parse error")
	}
}

func TestApplyFile_Missing(t *testing.T) {
	if err := ApplyFile(filepath.Join(t.TempDir(), "nope.toml"), &Config{}); err == nil {
		t.Error("ApplyFile() error = nil, want error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IMAGEPRESS_PORT", "7070")
	t.Setenv("IMAGEPRESS_DB", "/tmp/env.db")
	t.Setenv("IMAGEPRESS_FETCH_TIMEOUT", "10s")

	cfg := &Config{Port: 8080, DBPath: "x.db", FetchTimeout: 30 * time.Second}
	applyEnv(cfg)

	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/env.db")
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
}
