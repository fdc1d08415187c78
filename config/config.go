// Package config loads the two configuration surfaces the app reads at
// startup: an ambient YAML file for operational tunables, and the
// spec-mandated JSON document for user-facing settings (see
// appconfig.go). They are kept separate because they have different
// owners and different wire-format requirements.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the ambient YAML configuration (config/config.yaml).
type Config struct {
	LogLevel  int             `yaml:"log_level"`
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Queue     QueueConfig     `yaml:"queue"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type PipelineConfig struct {
	DefaultConcurrency int `yaml:"default_concurrency"`
	FanOutLimit        int `yaml:"fan_out_limit"`
}

type QueueConfig struct {
	Capacity int `yaml:"capacity"`
	Workers  int `yaml:"workers"`
}

type ToolchainConfig struct {
	FfmpegPath string `yaml:"ffmpeg_path"`
	YtdlpPath  string `yaml:"ytdlp_path"`
}

// Load reads path and unmarshals it over the built-in defaults. A
// missing file is not an error: the defaults are returned as-is, so the
// service degrades gracefully to a known-good configuration rather
// than refusing to start.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel: 0,
		Server:   ServerConfig{Port: "8787"},
		Pipeline: PipelineConfig{DefaultConcurrency: 16, FanOutLimit: 8},
		Queue:    QueueConfig{Capacity: 1024, Workers: 4},
		Toolchain: ToolchainConfig{
			FfmpegPath: "ffmpeg",
			YtdlpPath:  "yt-dlp",
		},
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
