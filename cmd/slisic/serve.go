package main

import (
	"log/slog"
	"os"

	"github.com/GrahLnn/slisic/internal/server"
	"github.com/GrahLnn/slisic/internal/startup"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server the UI shell drives.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
		slog.SetDefault(logger)

		saveDir, err := resolveSaveDir()
		if err != nil {
			return err
		}

		sys, err := startup.Build(cfg, startup.Paths{
			GraphSnapshot: graphSnapshotPath(),
			AppConfig:     appConfigPath(),
			WorkRoot:      workRootPath(),
			SaveRoot:      saveDir,
			ToolchainBin:  toolchainBinDir(),
		})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if n, err := sys.Resume(ctx); err != nil {
			slog.Error("serve: resume scan failed", "error", err)
		} else if n > 0 {
			slog.Info("serve: resumed interrupted jobs", "count", n)
		}

		srv := server.New(cfg, appConfigPath(), sys.Coordinator, sys.Downloader, sys.YtdlpUpdater, sys.FfmpegUpdater)

		go func() {
			<-ctx.Done()
			slog.Info("serve: shutting down")
			if err := sys.Shutdown(); err != nil {
				slog.Error("serve: shutdown failed", "error", err)
			}
			os.Exit(0)
		}()

		slog.Info("serve: starting", "port", cfg.Server.Port)
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
