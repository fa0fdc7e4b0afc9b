package mcp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by LoadConfig
const (
	EnvHistoryPath = "COMPDB_HISTORY_PATH"
	EnvWorkers     = "COMPDB_WORKERS"
	EnvWorkingDir  = "COMPDB_WORKING_DIR"
)

// ErrInvalidConfig is returned when an environment variable has an unusable value
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds server configuration
type Config struct {
	HistoryPath string // Directory holding the history database
	Workers     int    // Concurrent jobs for batch runs
	WorkingDir  string // Base for relative paths inside compilation databases
}

// LoadConfig loads optional dotenv files, then reads configuration from the
// environment. Variables already set in the process environment win over
// dotenv values. With no arguments ".env" in the current directory is tried.
// Missing dotenv files are ignored.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		HistoryPath: os.Getenv(EnvHistoryPath),
		WorkingDir:  os.Getenv(EnvWorkingDir),
		Workers:     runtime.NumCPU(),
	}

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}

	if raw := strings.TrimSpace(os.Getenv(EnvWorkers)); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 1 {
			return nil, fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidConfig, EnvWorkers, raw)
		}
		cfg.Workers = workers
	}

	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.WorkingDir = wd
	}
	if !filepath.IsAbs(cfg.WorkingDir) {
		return nil, fmt.Errorf("%w: %s must be absolute, got %q", ErrInvalidConfig, EnvWorkingDir, cfg.WorkingDir)
	}

	return cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
