// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Agent backend modes.
const (
	ModePlaceholder = "placeholder"
	ModeLive        = "live"
)

// Config holds all configuration values for cogflow.
type Config struct {
	InboxDir    string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
	ProjectRoot string `mapstructure:"project_root" yaml:"project_root"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	AgentMode   string `mapstructure:"agent_mode" yaml:"agent_mode"`
	Model       string `mapstructure:"model" yaml:"model"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("cogflow")

	v.SetDefault("inbox_dir", "00_INBOX")
	v.SetDefault("project_root", filepath.Join("projects", "current_project"))
	v.SetDefault("data_dir", ".cogflow")
	v.SetDefault("agent_mode", ModePlaceholder)
	v.SetDefault("model", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Setup ENV binding with COGFLOW_ prefix
	v.SetEnvPrefix("COGFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better parsing
	// Note: BindEnv errors are very rare (only invalid key names), but we check them anyway
	for _, key := range []string{"inbox_dir", "project_root", "data_dir", "agent_mode", "model", "log_level", "log_file"} {
		if err := v.BindEnv(key, "COGFLOW_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		// Need to set config file explicitly for merge
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.AgentMode != ModePlaceholder && cfg.AgentMode != ModeLive {
		return nil, fmt.Errorf("invalid agent_mode %q: must be %q or %q", cfg.AgentMode, ModePlaceholder, ModeLive)
	}
	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/cogflow/cogflow.yml or $XDG_CONFIG_HOME/cogflow/cogflow.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cogflow", "cogflow.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cogflow", "cogflow.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./cogflow.yml in the current working directory.
func ProjectPath() string {
	return "cogflow.yml"
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	path := ProjectPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
