package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an article and its attached file",
	Long: `Delete an article. The attached file is removed too; if that fails the
article is still deleted and the failure is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	id := args[0]
	res, err := application.Coordinator.DeleteArticle(ctx, id)
	exitOnError(err, "deleting article")

	if humanOutput {
		fmt.Printf("Deleted %s\n", id)
		if res.FileError != "" {
			fmt.Printf("  warning: attached file not removed: %s\n", res.FileError)
		}
		return nil
	}
	return outputJSON(DeleteResponse{
		Status:      "deleted",
		ID:          id,
		FileRemoved: res.FileRemoved,
		FileError:   res.FileError,
	})
}
