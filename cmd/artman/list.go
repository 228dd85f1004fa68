package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/article"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List articles, optionally filtered by title",
	Long: `List articles in insertion order. A search term keeps only articles whose
title contains it, ignoring case.

Examples:
  artman list
  artman list neural --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	var search string
	if len(args) == 1 {
		search = args[0]
	}

	articles, err := application.Coordinator.ListArticles(ctx, search)
	exitOnError(err, "listing articles")

	total := len(articles)
	if listLimit > 0 && listLimit < total {
		articles = articles[:listLimit]
	}

	if humanOutput {
		if len(articles) == 0 {
			fmt.Println("No articles found")
			return nil
		}
		if len(articles) < total {
			fmt.Printf("%d articles (showing first %d):\n\n", total, len(articles))
		} else {
			fmt.Printf("%d articles:\n\n", total)
		}
		for _, a := range articles {
			marker := " "
			if a.HasFile() {
				marker = "*"
			}
			fmt.Printf("  %-24s %s %s\n", a.ID, marker, truncateString(a.Title, ListTitleMaxLen))
		}
		return nil
	}

	if articles == nil {
		articles = []article.Article{}
	}
	return outputJSON(articles)
}
