package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	tperrors "github.com/qiuyinlan/threadpool/pkg/common/errors"
	"github.com/qiuyinlan/threadpool/pkg/common/validation"
	"github.com/qiuyinlan/threadpool/pkg/scheduling/scheduler"
	"github.com/qiuyinlan/threadpool/pkg/scheduling/workerpool"
)

// DefaultWorkers is the pool size used when the file does not set one.
const DefaultWorkers = 4

// Config describes a pool and its schedules as loaded from YAML.
//
//	name: thumbnails
//	workers: 8
//	metrics: true
//	log_level: debug
//	schedules:
//	  - id: cleanup
//	    cron: "0 */5 * * * *"
type Config struct {
	Name      string     `yaml:"name"`
	Workers   int        `yaml:"workers"`
	Metrics   bool       `yaml:"metrics"`
	LogLevel  string     `yaml:"log_level"`
	Schedules []Schedule `yaml:"schedules"`
}

// Schedule is a named cron entry.
type Schedule struct {
	ID   string `yaml:"id"`
	Cron string `yaml:"cron"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Workers:  DefaultWorkers,
		LogLevel: "info",
	}
}

// Load reads and validates a YAML file.
func Load(path string) (Config, error) {
	// #nosec G304 -- path comes from the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, tperrors.NewOperationError("config", "Load", err).WithContext(path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, tperrors.NewOperationError("config", "Load", err).WithContext(path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field. Schedules must have unique, non-empty IDs and
// parseable cron expressions.
func (c Config) Validate() error {
	if err := validation.ValidatePositive("config", "workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidateOneOf("config", "log_level", c.LogLevel,
		"debug", "info", "warn", "error"); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Schedules))
	for i, s := range c.Schedules {
		field := fmt.Sprintf("schedules[%d].id", i)
		if err := validation.ValidateNotEmpty("config", field, s.ID); err != nil {
			return err
		}
		if _, dup := seen[s.ID]; dup {
			return tperrors.NewValidationError("config", field, s.ID, "duplicate id")
		}
		seen[s.ID] = struct{}{}

		if err := scheduler.ValidateCronExpression(s.Cron); err != nil {
			return fmt.Errorf("schedule %q: %w", s.ID, err)
		}
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WorkerPoolConfig converts c into a pool configuration.
func (c Config) WorkerPoolConfig(logger *slog.Logger) workerpool.Config {
	return workerpool.Config{
		WorkerCount: c.Workers,
		Name:        c.Name,
		Logger:      logger,
	}
}

// Save writes c as YAML with owner-only permissions.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return tperrors.NewOperationError("config", "Save", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return tperrors.NewOperationError("config", "Save", err).WithContext(path)
	}
	return nil
}
