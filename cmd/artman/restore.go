package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore <jsonl>",
	Short: "Load a JSONL snapshot into an empty store",
	Long: `Load every article from a JSONL snapshot (as written by "artman snapshot"
or "artman export") into the configured store, keeping ids and creation
times. The store must be empty. Attached files are not copied.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	n, err := snapshot.Restore(ctx, application.Store, args[0])
	if errors.Is(err, snapshot.ErrStoreNotEmpty) {
		exitWithError(ExitDataError, "restoring: %v", err)
	}
	exitOnError(err, "restoring")

	if humanOutput {
		outputHuman("Restored %d articles from %s\n", n, args[0])
		return nil
	}
	return outputJSON(StatusResponse{Status: "restored", Path: args[0], Count: n})
}
