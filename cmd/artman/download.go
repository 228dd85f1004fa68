package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/blob"
)

func init() {
	rootCmd.AddCommand(downloadCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <ref> [dest]",
	Short: "Save an attached file locally",
	Long: `Save the file behind a blob ref (the "file" field of an article).
dest defaults to the original file name in the current directory; if dest is
a directory the file is saved inside it.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ref := args[0]

	dest := blob.DisplayName(ref)
	if len(args) == 2 {
		dest = args[1]
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			dest = filepath.Join(dest, blob.DisplayName(ref))
		}
	}

	application := mustOpenApp(ctx)
	defer application.Close()

	rc, err := application.Coordinator.OpenFile(ctx, ref)
	exitOnError(err, "opening file")
	defer rc.Close()

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", dest, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(dest)
		exitWithError(ExitError, "writing %s: %v", dest, err)
	}
	if err := f.Close(); err != nil {
		exitWithError(ExitError, "writing %s: %v", dest, err)
	}

	if humanOutput {
		outputHuman("Saved %s\n", dest)
		return nil
	}
	return outputJSON(StatusResponse{Status: "downloaded", Path: dest})
}
