package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds client-side configuration from ~/.edu/config.yaml
type LocalConfig struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds backend connection settings
type ServerConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LogConfig holds client logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// EduDir returns the path to ~/.edu
func EduDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".edu"), nil
}

// EnsureEduDir creates ~/.edu and its subdirectories if they don't exist
func EnsureEduDir() (string, error) {
	dir, err := EduDir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"state",
		"logs",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0700); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for the client
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Server: ServerConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 60,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// LoadLocalConfig loads configuration from ~/.edu/config.yaml. A missing
// file is not an error; defaults apply, and any key present in the file
// overrides its default.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := EduDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// SaveLocalConfig writes the config to ~/.edu/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureEduDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
