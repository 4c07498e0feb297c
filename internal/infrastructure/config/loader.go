// Package config loads YAML configuration from ~/.opsentry/config.yaml
// (overridable via OPSENTRY_CONFIG), writing defaults on first run.
// OPSENTRY_* environment variables override file values after load.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/pkg/filesystem"
	"github.com/doeshing/opsentry/internal/ports"
)

// FileLoader implements ports.ConfigProvider.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader; path "" means the standard location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeDefault(path, cfg); err != nil {
			return domain.Config{}, err
		}
	case err != nil:
		return domain.Config{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("OPSENTRY_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".opsentry", "config.yaml")
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Preferences: domain.Preferences{
			PreferredOutputStyle: "",
		},
		Safety: domain.SafetySettings{
			Enabled:               true,
			ConfirmationThreshold: string(domain.SafetyMedium),
			RiskCountThreshold:    3,
			CIDRPrefixThreshold:   16,
			MaxTargets:            10,
		},
		Synthesis: domain.SynthesisSettings{
			ContextualInference: true,
		},
		Confirmation: domain.ConfirmationSettings{
			TimeoutSeconds: 30,
		},
		Execution: domain.ExecutionSettings{
			AllowedCommands:       []string{"auth", "threat", "network", "behavior", "intel", "config", "help", "status"},
			HandlerTimeoutSeconds: 30,
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Safety.ConfirmationThreshold == "" {
		cfg.Safety.ConfirmationThreshold = string(domain.SafetyMedium)
	}
	if cfg.Safety.RiskCountThreshold == 0 {
		cfg.Safety.RiskCountThreshold = 3
	}
	if cfg.Safety.CIDRPrefixThreshold == 0 {
		cfg.Safety.CIDRPrefixThreshold = 16
	}
	if cfg.Safety.MaxTargets == 0 {
		cfg.Safety.MaxTargets = 10
	}
	if cfg.Confirmation.TimeoutSeconds == 0 {
		cfg.Confirmation.TimeoutSeconds = 30
	}
	if cfg.Execution.HandlerTimeoutSeconds == 0 {
		cfg.Execution.HandlerTimeoutSeconds = 30
	}
	if len(cfg.Execution.AllowedCommands) == 0 {
		cfg.Execution.AllowedCommands = defaultConfig().Execution.AllowedCommands
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
