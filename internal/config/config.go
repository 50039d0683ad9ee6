package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/audiolibrelab/voicecapture/internal/format"
)

const EnvPrefix = "VOICECAPTURE"

type RootConfig struct {
	ActiveConfig string                    `mapstructure:"active_config" yaml:"active_config"`
	Audio        *AudioConfig              `mapstructure:"audio,omitempty" yaml:"audio,omitempty"`
	Output       *OutputConfig             `mapstructure:"output,omitempty" yaml:"output,omitempty"`
	Permission   *PermissionConfig         `mapstructure:"permission,omitempty" yaml:"permission,omitempty"`
	Server       *ServerConfig             `mapstructure:"server,omitempty" yaml:"server,omitempty"`
	Configs      map[string]*ConfigProfile `mapstructure:"configs" yaml:"configs"`
}

type ConfigProfile struct {
	Defaults FormatDefaults `mapstructure:"defaults" yaml:"defaults"`
}

type Config struct {
	Profile    string           `mapstructure:"-" yaml:"profile"`
	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Defaults   FormatDefaults   `mapstructure:"defaults" yaml:"defaults"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Permission PermissionConfig `mapstructure:"permission" yaml:"permission"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

type AudioConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`           // "ffmpeg", "auto"
	Session     string `mapstructure:"session" yaml:"session"`           // "pulse", "memory"
	InputDevice string `mapstructure:"input_device" yaml:"input_device"` // PulseAudio source name
	FFmpegPath  string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path" yaml:"ffprobe_path"`
}

// FormatDefaults fill in parameters the caller omits on a parameterised start
type FormatDefaults struct {
	Encoder    string  `mapstructure:"encoder" yaml:"encoder"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	BitRate    int     `mapstructure:"bit_rate" yaml:"bit_rate"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	KeepFiles bool   `mapstructure:"keep_files" yaml:"keep_files"`
}

type PermissionConfig struct {
	MicrophoneGranted bool `mapstructure:"microphone_granted" yaml:"microphone_granted"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// Default returns the built-in configuration used when no file exists
func Default() *Config {
	return &Config{
		Profile: "default",
		Audio: AudioConfig{
			Backend:     "auto",
			Session:     "pulse",
			InputDevice: "default",
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Defaults: FormatDefaults{
			Encoder:    string(format.DefaultEncoder),
			SampleRate: format.DefaultSampleRate,
			BitRate:    format.DefaultBitRate,
		},
		Output: OutputConfig{
			Directory: "",
			KeepFiles: false,
		},
		Permission: PermissionConfig{
			MicrophoneGranted: true,
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

// DefaultPath is where the CLI looks for a config file when none is given
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/voicecapture.yaml")
}

func LoadWithProfile(configFile, profile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	rootConfig, err := ValidateConfigurationFormat(configFile)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Determine which profile to use
	configName := profile
	if configName == "" {
		configName = rootConfig.ActiveConfig
	}
	if configName == "" {
		configName = "default"
	}

	cfg := Default()
	cfg.Profile = configName

	if rootConfig.Audio != nil {
		mergeAudio(&cfg.Audio, rootConfig.Audio)
	}
	if rootConfig.Output != nil {
		cfg.Output = *rootConfig.Output
	}
	if rootConfig.Permission != nil {
		cfg.Permission = *rootConfig.Permission
	}
	if rootConfig.Server != nil && rootConfig.Server.Port != "" {
		cfg.Server.Port = rootConfig.Server.Port
	}

	// Base format defaults come from the "default" profile if it exists
	if defaultProfile, exists := rootConfig.Configs["default"]; exists && defaultProfile != nil {
		mergeDefaults(&cfg.Defaults, defaultProfile.Defaults)
	}

	if configName != "default" {
		selectedProfile, exists := rootConfig.Configs[configName]
		if !exists || selectedProfile == nil {
			return nil, fmt.Errorf("configuration profile '%s' not found", configName)
		}
		mergeDefaults(&cfg.Defaults, selectedProfile.Defaults)
	}

	cfg.Output.Directory = expandPath(cfg.Output.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file if it exists and falls back to Default otherwise
func LoadOrDefault(configFile, profile string) (*Config, error) {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if profile != "" && profile != "default" {
			return nil, fmt.Errorf("configuration profile '%s' requested but %s does not exist", profile, configFile)
		}
		return Default(), nil
	}
	return LoadWithProfile(configFile, profile)
}

func mergeAudio(dst *AudioConfig, src *AudioConfig) {
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
	if src.Session != "" {
		dst.Session = src.Session
	}
	if src.InputDevice != "" {
		dst.InputDevice = src.InputDevice
	}
	if src.FFmpegPath != "" {
		dst.FFmpegPath = src.FFmpegPath
	}
	if src.FFprobePath != "" {
		dst.FFprobePath = src.FFprobePath
	}
}

func mergeDefaults(dst *FormatDefaults, src FormatDefaults) {
	if src.Encoder != "" {
		dst.Encoder = src.Encoder
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
	if src.BitRate != 0 {
		dst.BitRate = src.BitRate
	}
}

// ValidateConfigurationFormat reads the file and returns the parsed root config
func ValidateConfigurationFormat(configFile string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(configFile)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var rootConfig RootConfig
	if err := v.Unmarshal(&rootConfig); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	for name, profile := range rootConfig.Configs {
		if profile == nil {
			continue
		}
		if err := validateDefaults(profile.Defaults, true); err != nil {
			return nil, fmt.Errorf("invalid config '%s': %w", name, err)
		}
	}

	return &rootConfig, nil
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	switch strings.ToLower(c.Audio.Backend) {
	case "ffmpeg", "auto", "":
	default:
		return fmt.Errorf("audio.backend: unknown backend '%s' (valid: ffmpeg, auto)", c.Audio.Backend)
	}

	switch strings.ToLower(c.Audio.Session) {
	case "pulse", "memory":
	default:
		return fmt.Errorf("audio.session: unknown session '%s' (valid: pulse, memory)", c.Audio.Session)
	}

	if c.Audio.FFmpegPath == "" {
		return fmt.Errorf("audio.ffmpeg_path cannot be empty")
	}

	return validateDefaults(c.Defaults, false)
}

func validateDefaults(d FormatDefaults, partial bool) error {
	if d.Encoder != "" || !partial {
		if _, err := format.ParseEncoder(d.Encoder); err != nil {
			return fmt.Errorf("defaults.encoder: %w", err)
		}
	}
	if !(partial && d.SampleRate == 0) && !format.ValidSampleRate(d.SampleRate) {
		return fmt.Errorf("defaults.sample_rate must be positive, got %v", d.SampleRate)
	}
	if d.BitRate < 0 || (!partial && d.BitRate == 0) {
		return fmt.Errorf("defaults.bit_rate must be positive, got %d", d.BitRate)
	}
	return nil
}

// UpdateActiveConfig updates the active_config field in the config file
func UpdateActiveConfig(configFile, newActiveConfig string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	v.Set("active_config", newActiveConfig)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// Marshal renders the effective configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("error marshaling config: %w", err)
	}
	return out, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
