package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9, len(cfg.RelayPins))
	assert.Equal(t, 50, cfg.PollIntervalMs)
	assert.Equal(t, 1000, cfg.SampleIntervalMs)
	assert.Equal(t, 2000, cfg.UploadIntervalMs)
	assert.Equal(t, 20, cfg.Samples)
	assert.Equal(t, 0.5, cfg.TDSFactor)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"device_id": "tank-2",
		"relay_pins": ["5", "6"],
		"poll_interval_ms": 100
	}`), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "tank-2", cfg.DeviceID)
	assert.Equal(t, []string{"5", "6"}, cfg.RelayPins)
	assert.Equal(t, 100, cfg.PollIntervalMs)
	// Untouched fields keep their defaults.
	assert.Equal(t, 20, cfg.Samples)
}

func TestLoadConfigRejectsBadSensorValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero samples", `{"samples": 0}`},
		{"negative samples", `{"samples": -5}`},
		{"zero adc max code", `{"adc_max_code": 0}`},
		{"zero adc vref", `{"adc_vref": 0}`},
		{"empty relay pins", `{"relay_pins": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := loadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := loadConfig(path)
	assert.Error(t, err)
}
