package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/statelyhq/stately/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Check a definition for consistency",
	Long:  `Compiles the definition and reports the first violation found: unknown state types, dangling transitions, invalid field combinations.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.Validate(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Definition is valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
