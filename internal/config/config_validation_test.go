package config

import (
	"math"
	"os"
	"testing"
)

func TestValidateConfigurationFormat_ValidConfig(t *testing.T) {
	validConfig := `
active_config: test

audio:
  session: pulse
  input_device: alsa_input.usb-Blue_Yeti

configs:
  test:
    defaults:
      encoder: AMR_WB
      sample_rate: 16000
      bit_rate: 23850
`

	configFile := createTempConfig(t, validConfig)
	defer os.Remove(configFile)

	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if rootConfig == nil {
		t.Fatal("Expected non-nil root config")
	}

	if rootConfig.ActiveConfig != "test" {
		t.Errorf("Expected active_config 'test', got '%s'", rootConfig.ActiveConfig)
	}

	if rootConfig.Audio == nil || rootConfig.Audio.InputDevice != "alsa_input.usb-Blue_Yeti" {
		t.Errorf("Expected audio.input_device 'alsa_input.usb-Blue_Yeti', got %+v", rootConfig.Audio)
	}

	testConfig := rootConfig.Configs["test"]
	if testConfig == nil {
		t.Fatal("Expected test config")
	}
	if testConfig.Defaults.Encoder != "AMR_WB" || testConfig.Defaults.BitRate != 23850 {
		t.Errorf("Invalid profile defaults: %+v", testConfig.Defaults)
	}
}

func TestValidateConfigurationFormat_UnsupportedEncoder(t *testing.T) {
	invalidConfig := `
configs:
  test:
    defaults:
      encoder: MP3
`

	configFile := createTempConfig(t, invalidConfig)
	defer os.Remove(configFile)

	_, err := ValidateConfigurationFormat(configFile)
	if err == nil {
		t.Fatal("Expected error for unsupported encoder")
	}

	if !containsSubstring(err.Error(), "invalid config 'test'") {
		t.Errorf("Expected error naming the profile, got: %v", err)
	}
}

func TestValidateConfigurationFormat_NegativeRates(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name: "negative sample rate",
			content: `
configs:
  test:
    defaults:
      sample_rate: -1
`,
			errMsg: "sample_rate must be positive",
		},
		{
			name: "negative bit rate",
			content: `
configs:
  test:
    defaults:
      bit_rate: -16384
`,
			errMsg: "bit_rate must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := createTempConfig(t, tt.content)
			defer os.Remove(configFile)

			_, err := ValidateConfigurationFormat(configFile)
			if err == nil {
				t.Fatalf("Expected error for %s", tt.name)
			}
			if !containsSubstring(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateConfigurationFormat_MissingFile(t *testing.T) {
	_, err := ValidateConfigurationFormat("/nonexistent/voicecapture.yaml")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !containsSubstring(err.Error(), "error reading config file") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Audio.Backend = "jack" }, "audio.backend"},
		{"unknown session", func(c *Config) { c.Audio.Session = "coreaudio" }, "audio.session"},
		{"empty ffmpeg path", func(c *Config) { c.Audio.FFmpegPath = "" }, "audio.ffmpeg_path"},
		{"empty encoder", func(c *Config) { c.Defaults.Encoder = "" }, "defaults.encoder"},
		{"zero sample rate", func(c *Config) { c.Defaults.SampleRate = 0 }, "defaults.sample_rate"},
		{"NaN sample rate", func(c *Config) { c.Defaults.SampleRate = math.NaN() }, "defaults.sample_rate"},
		{"infinite sample rate", func(c *Config) { c.Defaults.SampleRate = math.Inf(1) }, "defaults.sample_rate"},
		{"zero bit rate", func(c *Config) { c.Defaults.BitRate = 0 }, "defaults.bit_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing '%s'", tt.errMsg)
			}
			if !containsSubstring(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing '%s', got: %v", tt.errMsg, err)
			}
		})
	}
}

func createTempConfig(t *testing.T, content string) string {
	tmpfile, err := os.CreateTemp("", "voicecapture-test-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}

	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	return tmpfile.Name()
}
