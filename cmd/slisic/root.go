// Command slisic is the backend process behind the music-library UI
// shell: an HTTP server plus a handful of one-shot maintenance
// subcommands, grounded on zvuk-grabber's cobra/pflag root-command
// wiring (the teacher itself has no CLI subcommand surface of its
// own).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/GrahLnn/slisic/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dataDir    string
	saveDir    string
)

var rootCmd = &cobra.Command{
	Use:   "slisic",
	Short: "Local-first music-library ingestion backend.",
}

func main() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("slisic: command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	defaultDataDir, err := defaultAppDataDir()
	if err != nil {
		defaultDataDir = "."
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config/config.yaml",
		"path to the ambient YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir,
		"directory holding the graph snapshot, journal and toolchain binaries")
	rootCmd.PersistentFlags().StringVar(&saveDir, "save-dir", "",
		"override for the library save path (defaults to config.json's save_path)")
}

// defaultAppDataDir mirrors the Tauri shell's app_local_data_dir(): an
// OS-appropriate per-user config directory, namespaced under slisic.
func defaultAppDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "slisic"), nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func appConfigPath() string {
	return filepath.Join(dataDir, "config.json")
}

func graphSnapshotPath() string {
	return filepath.Join(dataDir, "graph.json")
}

func workRootPath() string {
	return filepath.Join(dataDir, "work")
}

func toolchainBinDir() string {
	return filepath.Join(dataDir, "bin")
}

// resolveSaveDir returns the --save-dir override if set, else the
// save_path recorded in config.json (which itself defaults to
// <documents>/slisic when config.json does not exist yet).
func resolveSaveDir() (string, error) {
	if saveDir != "" {
		return saveDir, nil
	}
	cfg, err := config.LoadAppConfig(appConfigPath())
	if err != nil {
		return "", err
	}
	return cfg.SavePath, nil
}
