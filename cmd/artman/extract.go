package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/ingest"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Summarize a PDF or DOCX without storing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", args[0], err)
	}

	application := mustOpenApp(ctx)
	defer application.Close()

	res, err := application.Coordinator.ExtractSummary(ctx, &ingest.Upload{Name: filepath.Base(args[0]), Data: data})
	exitOnError(err, "extracting summary")

	if humanOutput {
		fmt.Printf("Format:   %s (%d characters extracted)\n", res.Format, res.TextLength)
		fmt.Printf("Outcome:  %s\n", res.Outcome)
		if res.DOIHint != "" {
			fmt.Printf("DOI:      %s\n", res.DOIHint)
		}
		if res.Summary != "" {
			fmt.Println()
			fmt.Printf("  %s\n", wrapText(res.Summary, 68, "  "))
		}
		return nil
	}
	return outputJSON(res)
}
