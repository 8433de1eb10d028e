package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statelyhq/stately/internal/cli"
)

var graphDescribe bool

var graphCmd = &cobra.Command{
	Use:   "graph <definition>",
	Short: "Render a definition as a Mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Graph(args[0], graphDescribe); err != nil {
			fmt.Fprintf(os.Stderr, "graph failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().BoolVar(&graphDescribe, "describe", false, "Print a rendered machine summary before the chart")
}
