package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a single article by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	a, err := application.Coordinator.GetArticle(ctx, args[0])
	exitOnError(err, "getting article")

	if humanOutput {
		printArticleDetail(a)
		return nil
	}
	return outputJSON(a)
}
