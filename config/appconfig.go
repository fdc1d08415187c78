package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GrahLnn/slisic/internal/atomicfile"
)

// AppConfig is the user-facing settings document persisted at
// <app_local_data>/config.json. Its shape is a wire contract with the
// UI shell, so it is never folded into the ambient YAML file above.
type AppConfig struct {
	SavePath string `json:"save_path"`
	Version  int    `json:"version"`
}

// LoadAppConfig reads path, defaulting SavePath to
// <documents>/slisic when the file is missing or its save_path is
// empty.
func LoadAppConfig(path string) (AppConfig, error) {
	var cfg AppConfig
	err := atomicfile.ReadJSON(path, &cfg)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if cfg.SavePath == "" {
		def, err := defaultSavePath()
		if err != nil {
			return AppConfig{}, err
		}
		cfg.SavePath = def
	}
	return cfg, nil
}

// SaveAppConfig writes cfg to path using the atomic write protocol.
func SaveAppConfig(path string, cfg AppConfig) error {
	if err := atomicfile.WriteJSON(path, cfg); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func defaultSavePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "slisic"), nil
}
