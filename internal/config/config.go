package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// DefaultEndpoint is the public posts endpoint
	DefaultEndpoint = "https://jsonplaceholder.typicode.com/posts"

	// DefaultVoiceURL is the live conversational websocket endpoint
	DefaultVoiceURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	appDirName = "postexplorer"
)

// Config represents the application configuration
type Config struct {
	Version int           `toml:"version"`
	Source  SourceConfig  `toml:"source"`
	Storage StorageConfig `toml:"storage"`
	Search  SearchConfig  `toml:"search"`
	UI      UISettings    `toml:"ui"`
	Server  ServerConfig  `toml:"server"`
	Voice   VoiceConfig   `toml:"voice"`
	Log     LogConfig     `toml:"log"`
}

// SourceConfig describes the remote posts endpoint
type SourceConfig struct {
	Endpoint string `toml:"endpoint"`
	Timeout  string `toml:"timeout"` // Go duration string
}

// TimeoutDuration returns the parsed HTTP timeout
func (s SourceConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// StorageConfig selects and configures the search query store
type StorageConfig struct {
	Backend       string `toml:"backend"` // file, redis or memory
	Path          string `toml:"path"`    // state file for the file backend
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db"`
}

// SearchConfig controls filtering
type SearchConfig struct {
	MatchBody bool `toml:"match_body"` // match post bodies in addition to titles
}

// UISettings represents UI-related configuration
type UISettings struct {
	PullThreshold   int  `toml:"pull_threshold"`
	PullUnitsPerRow int  `toml:"pull_units_per_row"`
	AltScreen       bool `toml:"alt_screen"`
	Mouse           bool `toml:"mouse"`
}

// ServerConfig configures the headless API
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// VoiceConfig configures the voice assistant overlay
type VoiceConfig struct {
	URL         string `toml:"url"`
	APIKey      string `toml:"api_key,omitempty"`
	Model       string `toml:"model"`
	Voice       string `toml:"voice"`
	Instruction string `toml:"instruction"`
	Input       string `toml:"input"`  // raw 16 kHz PCM source, e.g. a FIFO
	Output      string `toml:"output"` // raw 24 kHz PCM sink
}

// LogConfig configures logging
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service rooted at the user config directory
func NewConfigService() ConfigService {
	return &configService{
		filePath: filepath.Join(Dir(), "config.toml"),
	}
}

// NewConfigServiceAt creates a config service for an explicit file
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// Dir returns the application directory inside the user config directory
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, appDirName)
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file, falling back to defaults when it does not exist
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path.
// Keys missing from the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		Version: 1,
		Source: SourceConfig{
			Endpoint: DefaultEndpoint,
			Timeout:  "15s",
		},
		Storage: StorageConfig{
			Backend:   "file",
			Path:      filepath.Join(dir, "state.toml"),
			RedisAddr: "localhost:6379",
		},
		Search: SearchConfig{
			MatchBody: true,
		},
		UI: UISettings{
			PullThreshold:   65,
			PullUnitsPerRow: 16,
			AltScreen:       true,
			Mouse:           true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Voice: VoiceConfig{
			URL:         DefaultVoiceURL,
			Model:       "models/gemini-2.5-flash-native-audio-preview-09-2025",
			Voice:       "Zephyr",
			Instruction: "You are a helpful and friendly assistant for the Post Explorer app. You help users explore social media posts and answer questions in a conversational way. Keep responses concise and engaging.",
		},
		Log: LogConfig{
			File:  filepath.Join(dir, "postexplorer.log"),
			Level: "info",
		},
	}
}

// Validate checks the configuration for errors and normalizes values
func (c *Config) Validate() error {
	c.Source.Endpoint = strings.TrimSpace(c.Source.Endpoint)
	if c.Source.Endpoint == "" {
		return fmt.Errorf("source endpoint is required")
	}
	if !strings.HasPrefix(c.Source.Endpoint, "http://") && !strings.HasPrefix(c.Source.Endpoint, "https://") {
		return fmt.Errorf("source endpoint must be an http(s) URL: %q", c.Source.Endpoint)
	}
	if c.Source.Timeout != "" {
		if _, err := time.ParseDuration(c.Source.Timeout); err != nil {
			return fmt.Errorf("parse source timeout: %w", err)
		}
	}

	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case "":
		c.Storage.Backend = "file"
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q (want file, redis or memory)", c.Storage.Backend)
	}
	if c.Storage.Backend == "file" && c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(Dir(), "state.toml")
	}
	if c.Storage.Backend == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("redis address is required for the redis backend")
	}

	if c.UI.PullThreshold <= 0 {
		return fmt.Errorf("pull threshold must be positive")
	}
	if c.UI.PullUnitsPerRow <= 0 {
		return fmt.Errorf("pull units per row must be positive")
	}

	return nil
}
