package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "data/motor.csv", c.Data.MotorPath)
	assert.Equal(t, 50, c.Governance.Publishable)
	assert.Equal(t, 30, c.Governance.Indicative)
	assert.Equal(t, 30, c.Governance.SuppressedBelow)
	assert.Equal(t, 100, c.Governance.MinMarketBase)
	assert.Equal(t, 10, c.Governance.FlowCellMin)
	assert.False(t, c.Governance.DevMode)
	assert.Equal(t, 8, c.Flow.TopN)
	assert.Equal(t, 10, c.Proxy.MinSample)
	assert.Equal(t, 24, c.Filter.TimeWindowMonths)
	assert.InDelta(t, 0.95, c.Intervals.Confidence, 1e-9)
	assert.Equal(t, 15*time.Second, c.FetchTimeout())
	assert.Equal(t, 20*time.Second, c.FetchMaxElapsed())

	e, err := c.Engine()
	require.NoError(t, err)
	assert.False(t, e.Development())
	assert.Equal(t, 50, e.PublishableThreshold())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "server:\n  port: 9090\nflow:\n  top_n: 5\ngovernance:\n  dev_override: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("SSI_FLOW_TOP_N", "3")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 3, c.Flow.TopN, "env beats file")
	assert.Equal(t, 5, c.Governance.DevOverride)

	// dev_override without dev_mode never loosens the engine
	e, err := c.Engine()
	require.NoError(t, err)
	assert.Equal(t, 50, e.PublishableThreshold())
}

func TestDevMode(t *testing.T) {
	t.Setenv("SSI_GOVERNANCE_DEV_MODE", "true")
	t.Setenv("SSI_GOVERNANCE_DEV_OVERRIDE", "5")

	c, err := Load("")
	require.NoError(t, err)
	e, err := c.Engine()
	require.NoError(t, err)
	assert.True(t, e.Development())
	assert.Equal(t, 5, e.PublishableThreshold())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		thresh bool
	}{
		{"indicative above publishable", func(c *Config) { c.Governance.Indicative = 60 }, true},
		{"suppressed below differs from indicative", func(c *Config) { c.Governance.SuppressedBelow = 20 }, true},
		{"negative threshold", func(c *Config) { c.Governance.Publishable = -1 }, true},
		{"dev mode without override", func(c *Config) { c.Governance.DevMode = true }, true},
		{"negative top n", func(c *Config) { c.Flow.TopN = -1 }, false},
		{"confidence out of range", func(c *Config) { c.Intervals.Confidence = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load("")
			require.NoError(t, err)
			tt.mutate(c)
			err = c.Validate()
			require.Error(t, err)
			if tt.thresh {
				assert.ErrorIs(t, err, ErrInvalidThresholds)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidThresholds)
			}
		})
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("SSI_GOVERNANCE_INDICATIVE", "80")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidThresholds)
}

func TestSaveRoundTrip(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	c.Server.Port = 7000

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(c, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	gov := doc["governance"].(map[string]any)
	assert.Equal(t, 50, gov["publishable"], "thresholds are inlined under governance")

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, back.Server.Port)
	assert.Equal(t, c.Governance, back.Governance)
}
