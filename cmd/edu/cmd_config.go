package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/licomnaklavy/edu-platform/internal/config"
)

// cmdConfig shows the client configuration, writing the default file on
// first use so there is something to edit
func cmdConfig() error {
	eduDir, err := config.EnsureEduDir()
	if err != nil {
		return fmt.Errorf("ensure edu dir: %w", err)
	}

	configPath := filepath.Join(eduDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save default config: %w", err)
		}
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Edu Configuration")

	fmt.Println("Server:")
	fmt.Printf("  url: %s\n", cfg.Server.URL)
	fmt.Printf("  timeout_seconds: %d\n", cfg.Server.TimeoutSeconds)

	fmt.Println("\nLog:")
	fmt.Printf("  level: %s\n", cfg.Log.Level)

	fmt.Printf("\nConfig path: %s\n", configPath)
	return nil
}
