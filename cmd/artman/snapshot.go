package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/snapshot"
)

var snapshotPath string

func init() {
	snapshotCmd.Flags().StringVar(&snapshotPath, "path", "", "Snapshot file (default snapshot.path from config)")
	rootCmd.AddCommand(snapshotCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write all articles to the JSONL snapshot file now",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	snap := application.Snapshots
	if snapshotPath != "" {
		snap = snapshot.New(application.Store, snapshotPath, application.Logger)
	}

	n, err := snap.Run(ctx)
	exitOnError(err, "writing snapshot")

	if humanOutput {
		outputHuman("Wrote %d articles to %s\n", n, snap.Path())
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: snap.Path(), Count: n})
}
