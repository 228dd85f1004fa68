package main

import (
	"os"
	"strings"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/spf13/cobra"

	"github.com/matsen/artman"
)

var functionPort string

func init() {
	functionCmd.Flags().StringVar(&functionPort, "port", "", "Port to listen on (default $PORT or 8080)")
	rootCmd.AddCommand(functionCmd)
}

var functionCmd = &cobra.Command{
	Use:   "function",
	Short: "Run the Cloud Functions entry point locally",
	Long: `Serve the registered Cloud Function through the Functions Framework, as it
runs when deployed. Configuration comes from the environment and from the file
named by ARTMAN_CONFIG.`,
	Args: cobra.NoArgs,
	RunE: runFunction,
}

func runFunction(cmd *cobra.Command, args []string) error {
	port := functionPort
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}
	port = strings.TrimPrefix(port, ":")

	// Serve the function at "/" rather than "/<name>".
	if os.Getenv("FUNCTION_TARGET") == "" {
		os.Setenv("FUNCTION_TARGET", artman.FunctionName)
	}
	if configPath != "" && os.Getenv("ARTMAN_CONFIG") == "" {
		os.Setenv("ARTMAN_CONFIG", configPath)
	}

	if err := funcframework.Start(port); err != nil {
		exitWithError(ExitError, "funcframework.Start: %v", err)
	}
	return nil
}
