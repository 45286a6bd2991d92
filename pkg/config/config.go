/*
Package config manages TOML config for bpedash.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/bpedash/internal/utils"
	"github.com/bastiangx/bpedash/pkg/control"
	"github.com/bastiangx/bpedash/pkg/view"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Sync    SyncConfig    `toml:"sync"`
	Control ControlConfig `toml:"control"`
	CLI     CliConfig     `toml:"cli"`
}

// ServerConfig points at the tokenizer-training service.
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	WSPath    string `toml:"ws_path"`
	TimeoutMs int    `toml:"timeout_ms"`
}

// SyncConfig controls progress synchronization.
type SyncConfig struct {
	PollIntervalMs int  `toml:"poll_interval_ms"`
	EnablePush     bool `toml:"enable_push"`
	RecentWindow   int  `toml:"recent_window"`
}

// ControlConfig holds training control defaults.
type ControlConfig struct {
	DefaultMaxSentences int `toml:"default_max_sentences"`
	DefaultVocabSize    int `toml:"default_vocab_size"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultMetric string `toml:"default_metric"`
	FindLimit     int    `toml:"find_limit"`
}

// Timeout is the HTTP timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// PollInterval is the poll cadence as a duration.
func (s SyncConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMs) * time.Millisecond
}

// Normalize replaces values the dashboard cannot run with by their defaults and
// reports how many were replaced. Training defaults outside the service bounds are
// reset too, since the dispatcher would refuse them anyway.
func (c *Config) Normalize() int {
	def := DefaultConfig()
	fixed := 0
	fix := func(bad bool, name string, apply func()) {
		if bad {
			log.Warnf("Invalid %s in config, using default", name)
			apply()
			fixed++
		}
	}

	fix(c.Server.BaseURL == "", "server.base_url", func() { c.Server.BaseURL = def.Server.BaseURL })
	fix(c.Server.TimeoutMs <= 0, "server.timeout_ms", func() { c.Server.TimeoutMs = def.Server.TimeoutMs })
	fix(c.Sync.PollIntervalMs <= 0, "sync.poll_interval_ms", func() { c.Sync.PollIntervalMs = def.Sync.PollIntervalMs })
	fix(c.Sync.RecentWindow <= 0, "sync.recent_window", func() { c.Sync.RecentWindow = view.DefaultWindow })
	fix(c.CLI.FindLimit < 0, "cli.find_limit", func() { c.CLI.FindLimit = def.CLI.FindLimit })

	_, known := view.LookupMetric(view.MetricKey(c.CLI.DefaultMetric))
	fix(!known, "cli.default_metric", func() { c.CLI.DefaultMetric = string(view.DefaultMetric) })

	outOfRange := control.Validate(c.Control.DefaultMaxSentences, c.Control.DefaultVocabSize) != nil
	fix(outOfRange, "control defaults", func() { c.Control = def.Control })
	return fixed
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
// 4. builtin defaults
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		execDir, execErr := utils.GetExecutableDir()
		if execErr != nil {
			return "", execErr
		}
		return execDir, nil
	}
	primaryPath := filepath.Join(homeDir, ".config", "bpedash")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "bpedash")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/bpedash/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:   "http://localhost:8000",
			WSPath:    "/ws",
			TimeoutMs: 10000,
		},
		Sync: SyncConfig{
			PollIntervalMs: 5000,
			EnablePush:     true,
			RecentWindow:   view.DefaultWindow,
		},
		Control: ControlConfig{
			DefaultMaxSentences: control.DefaultMaxSentences,
			DefaultVocabSize:    control.DefaultVocabSize,
		},
		CLI: CliConfig{
			DefaultMetric: string(view.DefaultMetric),
			FindLimit:     20,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps whatever sections still parse and defaults the rest
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "sync"); ok {
		extractSyncConfig(section, &config.Sync)
	}
	if section, ok := utils.ExtractSection(tempConfig, "control"); ok {
		extractControlConfig(section, &config.Control)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		server.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "ws_path"); ok {
		server.WSPath = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_ms"); ok {
		server.TimeoutMs = val
	}
}

func extractSyncConfig(data map[string]any, sync *SyncConfig) {
	if val, ok := utils.ExtractInt64(data, "poll_interval_ms"); ok {
		sync.PollIntervalMs = val
	}
	if val, ok := utils.ExtractBool(data, "enable_push"); ok {
		sync.EnablePush = val
	}
	if val, ok := utils.ExtractInt64(data, "recent_window"); ok {
		sync.RecentWindow = val
	}
}

func extractControlConfig(data map[string]any, control *ControlConfig) {
	if val, ok := utils.ExtractInt64(data, "default_max_sentences"); ok {
		control.DefaultMaxSentences = val
	}
	if val, ok := utils.ExtractInt64(data, "default_vocab_size"); ok {
		control.DefaultVocabSize = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractString(data, "default_metric"); ok {
		cli.DefaultMetric = val
	}
	if val, ok := utils.ExtractInt64(data, "find_limit"); ok {
		cli.FindLimit = val
	}
}

// RebuildConfigFile force creates a new config.toml at default and returns its path
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
