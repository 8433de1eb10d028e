package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/statelyhq/stately"
	"github.com/statelyhq/stately/internal/adapters/httpapi"
	"github.com/statelyhq/stately/internal/logging"
)

// ServeOptions configures the 'serve' command.
type ServeOptions struct {
	DefinitionPath string
	Listen         string
	Store          string
	StorePath      string
	RedisURL       string
	LogLevel       string
}

// Serve exposes a definition over the HTTP API until the process exits.
func Serve(opts ServeOptions) error {
	store, err := buildStore(opts.Store, opts.StorePath, opts.RedisURL)
	if err != nil {
		return err
	}
	if store == nil {
		// The HTTP surface steps and inspects stored executions; default
		// to the file store rather than a read-only server.
		store = newFileStore(opts.StorePath)
	}

	logger := logging.New(logging.ParseLevel(opts.LogLevel))
	registry := prometheus.NewRegistry()

	eng, err := stately.NewFromFile(opts.DefinitionPath,
		stately.WithLogger(logger),
		stately.WithStore(store),
		stately.WithMetrics(registry),
	)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(eng, registry)
	server := &http.Server{
		Addr:              opts.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serving state machine", "addr", opts.Listen, "definition", opts.DefinitionPath)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
