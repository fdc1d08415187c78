package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/startup"
	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// resumeCmd runs the journal resume scan without bringing up the HTTP
// server, for operators who want to drain interrupted jobs (e.g. after
// a crash) before the UI shell reconnects.
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Re-run whatever the journal says was interrupted, then exit.",
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

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("[cyan]resuming interrupted jobs...[reset]"),
		)
		listener := func(msg domain.ProcessMsg) {
			if msg.Playlist == startup.ResumePlaylist {
				_ = bar.Add(1)
			}
		}
		sys.Progress.AddListener(listener)

		n, err := sys.Resume(cmd.Context())
		sys.Progress.RemoveListener(listener)
		_ = bar.Finish()
		if err != nil {
			return err
		}

		fmt.Printf("\nresume scan complete: %d job(s) re-enqueued\n", n)
		return sys.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
