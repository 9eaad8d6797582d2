package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the static deploy-time configuration surface. Everything has a
// working default; a config.json overrides selectively.
type Config struct {
	DeviceID   string `json:"device_id"`
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`

	// Command stream device; empty means stdin.
	CommandDevice string `json:"command_device"`

	// Relay output lines, in relay order. The bank size follows this list.
	RelayPins []string `json:"relay_pins"`

	// ADS1x15 channels for the analog probes.
	TDSChannel string `json:"tds_channel"`
	PHChannel  string `json:"ph_channel"`
	DOChannel  string `json:"do_channel"`

	PollIntervalMs     int `json:"poll_interval_ms"`
	RecoveryIntervalMs int `json:"recovery_interval_ms"`
	SampleIntervalMs   int `json:"sample_interval_ms"`
	UploadIntervalMs   int `json:"upload_interval_ms"`

	Samples       int `json:"samples"`
	SampleDelayMs int `json:"sample_delay_ms"`

	ADCVRef    float64 `json:"adc_vref"`
	ADCMaxCode int     `json:"adc_max_code"`
	TDSFactor  float64 `json:"tds_factor"`

	FallbackTemp     float32 `json:"fallback_temp"`
	FallbackHumidity float32 `json:"fallback_humidity"`

	MQTTBrokerURL string `json:"mqtt_broker_url"`
	MQTTClientID  string `json:"mqtt_client_id"`
	MQTTUsername  string `json:"mqtt_username"`
	MQTTPassword  string `json:"mqtt_password"`
	MQTTPrefix    string `json:"mqtt_prefix"`
}

func defaultConfig() Config {
	return Config{
		DeviceID:           "hydro-ctl-1",
		APIBaseURL:         "http://127.0.0.1:5000",
		APIKey:             "espkey123",
		RelayPins:          []string{"12", "13", "14", "15", "16", "17", "18", "19", "23"},
		TDSChannel:         "1",
		PHChannel:          "0",
		DOChannel:          "2",
		PollIntervalMs:     50,
		RecoveryIntervalMs: 10000,
		SampleIntervalMs:   1000,
		UploadIntervalMs:   2000,
		Samples:            20,
		SampleDelayMs:      2,
		ADCVRef:            3.3,
		ADCMaxCode:         4095,
		TDSFactor:          0.5,
		FallbackTemp:       25.0,
		FallbackHumidity:   50.0,
		MQTTClientID:       "hydro-controller",
		MQTTPrefix:         "hydro",
	}
}

// loadConfig reads path over the defaults. A missing file is fine, the
// defaults stand; a malformed file is a deploy error and is reported.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// validate catches overrides that would poison the sensor math.
func (c Config) validate() error {
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be > 0, got %d", c.Samples)
	}
	if c.ADCMaxCode <= 0 {
		return fmt.Errorf("adc_max_code must be > 0, got %d", c.ADCMaxCode)
	}
	if c.ADCVRef <= 0 {
		return fmt.Errorf("adc_vref must be > 0, got %g", c.ADCVRef)
	}
	if len(c.RelayPins) == 0 {
		return fmt.Errorf("relay_pins must not be empty")
	}
	return nil
}
