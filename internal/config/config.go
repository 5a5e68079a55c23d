package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	DataDir         string        `yaml:"data_dir"`
	Backend         string        `yaml:"backend"`
	SaveCooldown    time.Duration `yaml:"save_cooldown"`
	LogLevel        string        `yaml:"log_level"`
	WatchExternal   bool          `yaml:"watch_external"`
	SchedulerBuffer int           `yaml:"scheduler_buffer"`
}

func Default() Config {
	return Config{
		DataDir:         DefaultDataDir(),
		Backend:         BackendFile,
		SaveCooldown:    time.Second,
		LogLevel:        "info",
		WatchExternal:   true,
		SchedulerBuffer: 16,
	}
}

// DefaultDataDir follows the XDG base directory layout.
func DefaultDataDir() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "errands")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".errands"
	}
	return filepath.Join(home, ".local", "share", "errands")
}

// Load layers defaults, the YAML config file and ERRANDS_* environment
// variables, in that order. A .env file in the working directory is read
// first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if dir := strings.TrimSpace(os.Getenv("ERRANDS_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}
	path := strings.TrimSpace(os.Getenv("ERRANDS_CONFIG"))
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}
	cfg, err := FromFile(cfg, path)
	if err != nil {
		return Config{}, err
	}
	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromFile overlays the YAML file at path on base. A missing file is not an
// error.
func FromFile(base Config, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("ERRANDS_DATA_DIR")); v != "" {
		cfg.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("ERRANDS_BACKEND")); v != "" {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvDuration("ERRANDS_SAVE_COOLDOWN"); ok && v > 0 {
		cfg.SaveCooldown = v
	}
	if v := strings.TrimSpace(os.Getenv("ERRANDS_LOG_LEVEL")); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvBool("ERRANDS_WATCH"); ok {
		cfg.WatchExternal = v
	}
	if v, ok := getEnvInt("ERRANDS_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	return cfg
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	}
	if c.Backend != BackendFile && c.Backend != BackendSQLite {
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.SaveCooldown <= 0 {
		return fmt.Errorf("%w: save_cooldown must be positive", ErrInvalidConfig)
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("%w: scheduler_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "errands.db")
}

func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "errands.log")
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// getEnvDuration accepts Go durations ("1500ms") or bare milliseconds.
func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	return 0, false
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
