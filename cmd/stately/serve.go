package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statelyhq/stately/internal/cli"
)

var serveOpts cli.ServeOptions

var serveCmd = &cobra.Command{
	Use:   "serve <definition>",
	Short: "Expose a state machine over HTTP",
	Long:  `Serves the REST API (start, step, inspect executions) plus Prometheus metrics for one definition.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		serveOpts.DefinitionPath = args[0]
		serveOpts.LogLevel, _ = cmd.Flags().GetString("log-level")
		if err := cli.Serve(serveOpts); err != nil {
			fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.Listen, "listen", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOpts.Store, "store", "", "Snapshot store (file or redis, default file)")
	serveCmd.Flags().StringVar(&serveOpts.StorePath, "store-path", "", "Directory for the file store")
	serveCmd.Flags().StringVar(&serveOpts.RedisURL, "redis-url", "", "Redis URL for the redis store")
}
