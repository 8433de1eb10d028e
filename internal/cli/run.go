// Package cli implements the command logic behind cmd/stately.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"

	"github.com/statelyhq/stately"
	"github.com/statelyhq/stately/internal/logging"
	"github.com/statelyhq/stately/pkg/domain"
	"github.com/statelyhq/stately/pkg/ports"
)

// RunOptions configures the 'run' command.
type RunOptions struct {
	DefinitionPath string
	Input          string // raw JSON
	Name           string
	Store          string // "", "file" or "redis"
	StorePath      string
	RedisURL       string
	LogLevel       string
	Timeout        time.Duration
	JSON           bool
}

// Run executes a definition file once and prints the resulting snapshot.
func Run(opts RunOptions) error {
	var input any
	if opts.Input != "" {
		if err := json.Unmarshal([]byte(opts.Input), &input); err != nil {
			return fmt.Errorf("error parsing --input JSON: %w", err)
		}
	}

	store, err := buildStore(opts.Store, opts.StorePath, opts.RedisURL)
	if err != nil {
		return err
	}

	engineOpts := []stately.Option{
		stately.WithLogger(logging.New(logging.ParseLevel(opts.LogLevel))),
	}
	if store != nil {
		engineOpts = append(engineOpts, stately.WithStore(store))
	}

	eng, err := stately.NewFromFile(opts.DefinitionPath, engineOpts...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	snap, err := eng.Execute(ctx, input, opts.Name)
	if err != nil {
		return err
	}

	if opts.JSON {
		return printJSON(snap)
	}
	printSnapshot(snap)
	return nil
}

func printJSON(snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// printSnapshot writes a human-readable execution summary with the status
// colored when stdout is a terminal.
func printSnapshot(snap *domain.Snapshot) {
	out := termenv.NewOutput(os.Stdout)

	status := out.String(string(snap.Status))
	switch snap.Status {
	case domain.StatusSucceeded:
		status = status.Foreground(out.Color("2")).Bold()
	case domain.StatusFailed:
		status = status.Foreground(out.Color("1")).Bold()
	default:
		status = status.Foreground(out.Color("3"))
	}

	fmt.Printf("Execution: %s\n", snap.Name)
	fmt.Printf("Status:    %s\n", status)
	if snap.Error != "" {
		fmt.Printf("Error:     %s\n", snap.Error)
		fmt.Printf("Cause:     %s\n", snap.Cause)
	}
	fmt.Printf("Duration:  %.3fs\n", snap.ExecutionTime)

	fmt.Println("History:")
	for i, entry := range snap.History {
		fmt.Printf("  %2d. %s\n", i+1, entry.StateName)
	}

	if output, err := json.MarshalIndent(snap.Output, "", "  "); err == nil {
		fmt.Println("Output:")
		fmt.Println(string(output))
	}
}

func buildStore(kind, path, redisURL string) (ports.ExecutionStore, error) {
	switch kind {
	case "":
		return nil, nil
	case "file":
		return newFileStore(path), nil
	case "redis":
		return newRedisStore(redisURL)
	default:
		return nil, fmt.Errorf("unknown store %q (expected file or redis)", kind)
	}
}
