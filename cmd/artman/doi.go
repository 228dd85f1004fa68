package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(doiCmd)
}

var doiCmd = &cobra.Command{
	Use:   "doi <doi>",
	Short: "Look up article metadata by DOI",
	Long: `Look up title, authors and summary for a DOI from Crossref.
When Crossref has no abstract, a summary is synthesized from the metadata.

Example:
  artman doi 10.1038/nature12373`,
	Args: cobra.ExactArgs(1),
	RunE: runDOI,
}

func runDOI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	meta, err := application.Coordinator.LookupDOI(ctx, args[0])
	exitOnError(err, "looking up DOI")

	if humanOutput {
		fmt.Printf("Title:    %s\n", wrapText(meta.Title, TextWrapWidth, DetailWrapIndent))
		fmt.Printf("Authors:  %s\n", wrapText(meta.Authors, TextWrapWidth, DetailWrapIndent))
		fmt.Printf("DOI:      %s\n", meta.DOI)
		if meta.Summary != "" {
			fmt.Println()
			fmt.Printf("  %s\n", wrapText(meta.Summary, 68, "  "))
		}
		return nil
	}
	return outputJSON(meta)
}
