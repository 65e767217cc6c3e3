package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration.
type Config struct {
	Port             int
	DBPath           string
	OutputDir        string
	PublicBaseURL    string
	MaxJobs          int
	FetchConcurrency int
	FetchTimeout     time.Duration
}

// fileConfig mirrors Config for the optional TOML config file.
// Pointer fields distinguish "absent" from zero values.
type fileConfig struct {
	Port             *int    `toml:"port"`
	DBPath           *string `toml:"db_path"`
	OutputDir        *string `toml:"output_dir"`
	PublicBaseURL    *string `toml:"public_base_url"`
	MaxJobs          *int    `toml:"max_jobs"`
	FetchConcurrency *int    `toml:"fetch_concurrency"`
	FetchTimeout     *string `toml:"fetch_timeout"`
}

// DefaultDBPath returns the default database path using XDG_CACHE_HOME.
func DefaultDBPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "imagepress", "jobs.db")
}

// Load parses flags, an optional TOML file and environment variables.
// Precedence: flag defaults < flags < config file < environment.
func Load() *Config {
	cfg := &Config{}
	var configPath string

	flag.IntVar(&cfg.Port, "port", 8080, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", DefaultDBPath(), "SQLite database path")
	flag.StringVar(&cfg.OutputDir, "output-dir", "output", "Compressed asset directory")
	flag.StringVar(&cfg.PublicBaseURL, "public-base-url", "", "Base URL prefixed to asset references")
	flag.IntVar(&cfg.MaxJobs, "max-jobs", 4, "Maximum concurrently processing jobs")
	flag.IntVar(&cfg.FetchConcurrency, "fetch-concurrency", 8, "Maximum concurrent image fetches")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", 30*time.Second, "Per-image fetch timeout")
	flag.StringVar(&configPath, "config", "", "TOML config file path")
	flag.Parse()

	if configPath != "" {
		if err := ApplyFile(configPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config file %s: %v\n", configPath, err)
			os.Exit(1)
		}
	}

	applyEnv(cfg)
	return cfg
}

// ApplyFile overlays values from a TOML file onto cfg.
func ApplyFile(path string, cfg *Config) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return err
	}

	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	if fc.PublicBaseURL != nil {
		cfg.PublicBaseURL = *fc.PublicBaseURL
	}
	if fc.MaxJobs != nil {
		cfg.MaxJobs = *fc.MaxJobs
	}
	if fc.FetchConcurrency != nil {
		cfg.FetchConcurrency = *fc.FetchConcurrency
	}
	if fc.FetchTimeout != nil {
		d, err := time.ParseDuration(*fc.FetchTimeout)
		if err != nil {
			return fmt.Errorf("fetch_timeout: %w", err)
		}
		cfg.FetchTimeout = d
	}
	return nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("IMAGEPRESS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if db := os.Getenv("IMAGEPRESS_DB"); db != "" {
		cfg.DBPath = db
	}
	if dir := os.Getenv("IMAGEPRESS_OUTPUT_DIR"); dir != "" {
		cfg.OutputDir = dir
	}
	if base := os.Getenv("IMAGEPRESS_PUBLIC_BASE_URL"); base != "" {
		cfg.PublicBaseURL = base
	}
	if timeout := os.Getenv("IMAGEPRESS_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.FetchTimeout = d
		}
	}
}
