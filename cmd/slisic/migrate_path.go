package main

import (
	"fmt"

	"github.com/GrahLnn/slisic/internal/startup"
	"github.com/spf13/cobra"
)

// migratePathCmd bulk-rewrites every Music row whose path is rooted
// under src so it is instead rooted under dst, without touching file
// bytes on disk. Grounded on original_source's
// transfer_music_from_folder. This is distinct from the
// update_save_path API command: that one only swaps config.json's
// save_path pointer for new downloads going forward; this command
// repoints the graph's existing Music rows after the caller has
// already relocated the files themselves (e.g. with `mv` or a sync
// tool), so the catalogue's paths do not go stale.
var migratePathCmd = &cobra.Command{
	Use:   "migrate-path <src> <dst>",
	Short: "Bulk-rewrite catalogued music paths from one folder root to another.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, dst := args[0], args[1]

		saveDir, err := resolveSaveDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
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

		moved := sys.Coordinator.MigratePath(src, dst)

		fmt.Printf("migrate-path: rewrote %d music path(s) from %s to %s\n", moved, src, dst)
		return sys.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(migratePathCmd)
}
