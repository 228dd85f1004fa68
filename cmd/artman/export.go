package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/export"
	"github.com/matsen/artman/internal/storage"
)

var (
	exportBibTeX bool
	exportAppend bool
	exportSearch string
)

func init() {
	exportCmd.Flags().BoolVar(&exportBibTeX, "bibtex", false, "Export as BibTeX instead of JSONL")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append new entries to an existing .bib file, skipping duplicates (requires --bibtex and a path)")
	exportCmd.Flags().StringVar(&exportSearch, "search", "", "Only export articles whose title contains this")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export articles as JSONL or BibTeX",
	Long: `Export articles as JSONL (one article per line) or BibTeX.
Without a path the export is written to stdout.

Examples:
  artman export backup.jsonl
  artman export --bibtex > refs.bib
  artman export --bibtex --append refs.bib`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	if exportAppend && (!exportBibTeX || path == "") {
		exitWithError(ExitDataError, "--append requires --bibtex and a path")
	}

	application := mustOpenApp(ctx)
	defer application.Close()

	articles, err := application.Coordinator.ListArticles(ctx, exportSearch)
	exitOnError(err, "listing articles")

	switch {
	case exportAppend:
		idx, err := export.ParseBibTeXFile(path)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", path, err)
		}
		fresh := export.FilterNew(idx, articles)
		if len(fresh) > 0 {
			if err := export.AppendToBibFile(path, export.ToBibTeXList(fresh)); err != nil {
				exitWithError(ExitError, "appending to %s: %v", path, err)
			}
		}
		return reportExport(path, len(fresh), len(articles)-len(fresh))

	case exportBibTeX:
		content := export.ToBibTeXList(articles)
		if path == "" {
			fmt.Print(content)
			return nil
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", path, err)
		}
		return reportExport(path, len(articles), 0)

	default:
		if path == "" {
			for _, a := range articles {
				if err := outputJSONLine(a); err != nil {
					return err
				}
			}
			return nil
		}
		if err := storage.WriteAll(path, articles); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return reportExport(path, len(articles), 0)
	}
}

// ExportResponse is the response for exports written to a file.
type ExportResponse struct {
	Path    string `json:"path"`
	Written int    `json:"written"`
	Skipped int    `json:"skipped"`
}

func reportExport(path string, written, skipped int) error {
	if humanOutput {
		outputHuman("Exported %d articles to %s", written, path)
		if skipped > 0 {
			outputHuman(" (%d already present)", skipped)
		}
		outputHuman("\n")
		return nil
	}
	return outputJSON(ExportResponse{Path: path, Written: written, Skipped: skipped})
}
