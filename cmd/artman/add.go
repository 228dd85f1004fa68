package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/ingest"
)

var (
	addTitle   string
	addAuthor  string
	addSummary string
	addNotes   string
	addDOI     string
	addFile    string
	addFromDOI bool
)

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "Article title (required unless --from-doi)")
	addCmd.Flags().StringVar(&addAuthor, "author", "", "Authors, comma separated")
	addCmd.Flags().StringVar(&addSummary, "summary", "", "Summary; derived from --file when empty")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Personal notes")
	addCmd.Flags().StringVar(&addDOI, "doi", "", "DOI")
	addCmd.Flags().StringVar(&addFile, "file", "", "PDF or DOCX to attach")
	addCmd.Flags().BoolVar(&addFromDOI, "from-doi", false, "Prefill empty fields from Crossref using --doi")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an article",
	Long: `Add an article, optionally attaching a PDF or DOCX.

A submitted --summary is stored as given. Without one, the summary is derived
from the attached file.

Examples:
  artman add --title "Deep Learning" --author "Y. LeCun, Y. Bengio" --file dl.pdf
  artman add --doi 10.1038/nature14539 --from-doi`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var up *ingest.Upload
	if addFile != "" {
		data, err := os.ReadFile(addFile)
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", addFile, err)
		}
		up = &ingest.Upload{Name: filepath.Base(addFile), Data: data}
	}

	application := mustOpenApp(ctx)
	defer application.Close()

	fields := article.Fields{
		Title:   addTitle,
		Author:  addAuthor,
		Summary: addSummary,
		Notes:   addNotes,
		DOI:     addDOI,
	}

	if addFromDOI {
		meta, err := application.Coordinator.LookupDOI(ctx, addDOI)
		exitOnError(err, "looking up DOI")
		fields = prefill(fields, meta.Title, meta.Authors, meta.Summary)
	}

	a, err := application.Coordinator.CreateArticle(ctx, fields, up)
	exitOnError(err, "adding article")

	if humanOutput {
		fmt.Printf("Added %s: %s\n", a.ID, a.Title)
		if a.HasFile() {
			fmt.Printf("  file: %s\n", a.FileRef())
		}
		return nil
	}
	return outputJSON(a)
}

// prefill fills empty form fields from looked-up metadata.
func prefill(f article.Fields, title, authors, summary string) article.Fields {
	if f.Title == "" {
		f.Title = title
	}
	if f.Author == "" {
		f.Author = authors
	}
	if f.Summary == "" {
		f.Summary = summary
	}
	return f
}
