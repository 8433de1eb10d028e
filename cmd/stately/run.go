package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/statelyhq/stately/internal/cli"
)

var runOpts cli.RunOptions

var runCmd = &cobra.Command{
	Use:   "run <definition>",
	Short: "Execute a state machine definition",
	Long:  `Loads a JSON or YAML definition, runs one execution to completion, and prints the result.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOpts.DefinitionPath = args[0]
		runOpts.LogLevel, _ = cmd.Flags().GetString("log-level")
		if err := cli.Run(runOpts); err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runOpts.Input, "input", "", "Execution input as JSON")
	runCmd.Flags().StringVar(&runOpts.Name, "name", "", "Execution name (generated when empty)")
	runCmd.Flags().StringVar(&runOpts.Store, "store", "", "Persist snapshots to a store (file or redis)")
	runCmd.Flags().StringVar(&runOpts.StorePath, "store-path", "", "Directory for the file store")
	runCmd.Flags().StringVar(&runOpts.RedisURL, "redis-url", "", "Redis URL for the redis store")
	runCmd.Flags().DurationVar(&runOpts.Timeout, "timeout", 0, "Overall execution deadline (e.g. 30s)")
	runCmd.Flags().BoolVar(&runOpts.JSON, "json", false, "Print the raw snapshot JSON")
}
