package main

import (
	"fmt"

	"github.com/GrahLnn/slisic/internal/coordinator"
	"github.com/GrahLnn/slisic/internal/domain"
	"github.com/GrahLnn/slisic/internal/startup"
	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// trimSilenceCmd re-runs TrimLeadingSilence over every Music row in the
// graph, mirroring original_source's trim_zero/fix_cur_data bulk pass.
var trimSilenceCmd = &cobra.Command{
	Use:   "trim-silence",
	Short: "Re-trim leading silence across every catalogued music file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

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
			progressbar.OptionSetDescription("[cyan]trimming leading silence...[reset]"),
		)
		listener := func(msg domain.ProcessMsg) {
			if msg.Playlist == coordinator.TrimAllSilenceLabel {
				_ = bar.Add(1)
			}
		}
		sys.Progress.AddListener(listener)

		n := sys.Coordinator.TrimAllSilence(cmd.Context())
		sys.Progress.RemoveListener(listener)
		_ = bar.Finish()

		fmt.Printf("\ntrim-silence complete: %d file(s) processed\n", n)
		return sys.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(trimSilenceCmd)
}
