package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Flag names shared by the CLI and the override logic
const (
	FlagEndpoint  = "endpoint"
	FlagStorage   = "storage"
	FlagStateFile = "state-file"
	FlagRedisAddr = "redis-addr"
	FlagMatchBody = "match-body"
	FlagLogFile   = "log-file"
	FlagLogLevel  = "log-level"
	FlagAddr      = "addr"
)

// Overrides holds values parsed from command line flags
type Overrides struct {
	Endpoint  string
	Storage   string
	StateFile string
	RedisAddr string
	MatchBody bool
	LogFile   string
	LogLevel  string
	Addr      string
}

// configSetter applies values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

func (s *configSetter) setBoolFromString(flag, value string, dst *bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = b
	return nil
}

// ApplyEnv applies POSTEXPLORER_* environment variables.
// Variables whose flag was set on the command line are ignored.
func ApplyEnv(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString(FlagEndpoint, os.Getenv("POSTEXPLORER_ENDPOINT"), &cfg.Source.Endpoint)
	s.setString("timeout", os.Getenv("POSTEXPLORER_TIMEOUT"), &cfg.Source.Timeout)
	s.setString(FlagStorage, os.Getenv("POSTEXPLORER_STORAGE"), &cfg.Storage.Backend)
	s.setString(FlagStateFile, os.Getenv("POSTEXPLORER_STATE_FILE"), &cfg.Storage.Path)
	s.setString(FlagRedisAddr, os.Getenv("POSTEXPLORER_REDIS_ADDR"), &cfg.Storage.RedisAddr)
	s.setString("redis-password", os.Getenv("POSTEXPLORER_REDIS_PASSWORD"), &cfg.Storage.RedisPassword)
	if err := s.setIntFromString("redis-db", os.Getenv("POSTEXPLORER_REDIS_DB"), &cfg.Storage.RedisDB); err != nil {
		return err
	}
	if err := s.setBoolFromString(FlagMatchBody, os.Getenv("POSTEXPLORER_MATCH_BODY"), &cfg.Search.MatchBody); err != nil {
		return err
	}
	s.setString(FlagLogFile, os.Getenv("POSTEXPLORER_LOG_FILE"), &cfg.Log.File)
	s.setString(FlagLogLevel, os.Getenv("POSTEXPLORER_LOG_LEVEL"), &cfg.Log.Level)
	s.setString(FlagAddr, os.Getenv("POSTEXPLORER_ADDR"), &cfg.Server.Addr)
	s.setString("voice-url", os.Getenv("POSTEXPLORER_VOICE_URL"), &cfg.Voice.URL)
	s.setString("voice-input", os.Getenv("POSTEXPLORER_VOICE_INPUT"), &cfg.Voice.Input)
	s.setString("voice-output", os.Getenv("POSTEXPLORER_VOICE_OUTPUT"), &cfg.Voice.Output)

	// API_KEY is what the web build reads; GEMINI_API_KEY wins when both are set
	s.setString("api-key", strings.TrimSpace(os.Getenv("API_KEY")), &cfg.Voice.APIKey)
	s.setString("api-key", strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), &cfg.Voice.APIKey)

	return nil
}

// ApplyOverrides copies explicitly set flags into the configuration
func ApplyOverrides(cfg *Config, o Overrides, changed map[string]bool) {
	if changed[FlagEndpoint] {
		cfg.Source.Endpoint = o.Endpoint
	}
	if changed[FlagStorage] {
		cfg.Storage.Backend = o.Storage
	}
	if changed[FlagStateFile] {
		cfg.Storage.Path = o.StateFile
	}
	if changed[FlagRedisAddr] {
		cfg.Storage.RedisAddr = o.RedisAddr
	}
	if changed[FlagMatchBody] {
		cfg.Search.MatchBody = o.MatchBody
	}
	if changed[FlagLogFile] {
		cfg.Log.File = o.LogFile
	}
	if changed[FlagLogLevel] {
		cfg.Log.Level = o.LogLevel
	}
	if changed[FlagAddr] {
		cfg.Server.Addr = o.Addr
	}
}
