package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsentry/internal/domain"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.ConfigFormatVersion)
	assert.True(t, cfg.Safety.Enabled)
	assert.Equal(t, string(domain.SafetyMedium), cfg.Safety.ConfirmationThreshold)
	assert.Equal(t, 3, cfg.Safety.RiskCountThreshold)
	assert.Equal(t, 16, cfg.Safety.CIDRPrefixThreshold)
	assert.Equal(t, 30, cfg.Confirmation.TimeoutSeconds)
	assert.True(t, cfg.Synthesis.ContextualInference)
	assert.Contains(t, cfg.Execution.AllowedCommands, "threat")

	// The default file now exists and loads back identically.
	_, err = os.Stat(path)
	require.NoError(t, err)
	again, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
safety:
  enabled: true
  confirmation_threshold: high
  risk_count_threshold: 5
confirmation:
  timeout: 10
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "high", cfg.Safety.ConfirmationThreshold)
	assert.Equal(t, 5, cfg.Safety.RiskCountThreshold)
	assert.Equal(t, 10, cfg.Confirmation.TimeoutSeconds)

	// Unspecified values still hydrate.
	assert.Equal(t, 16, cfg.Safety.CIDRPrefixThreshold)
	assert.NotEmpty(t, cfg.Execution.AllowedCommands)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety:\n  confirmation_threshold: medium\n"), 0o600))

	t.Setenv("OPSENTRY_CONFIRM_THRESHOLD", "critical")
	t.Setenv("OPSENTRY_RISK_COUNT_THRESHOLD", "7")

	cfg, err := NewFileLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "critical", cfg.Safety.ConfirmationThreshold)
	assert.Equal(t, 7, cfg.Safety.RiskCountThreshold)
}

func TestConfigPathEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("OPSENTRY_CONFIG", path)

	_, err := NewFileLoader("").Load(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults are written to the OPSENTRY_CONFIG path")
}
