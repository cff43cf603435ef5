// Package commands implements the geocode CLI, a one-shot client that runs
// method calls through the bridge and prints the reply.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/geocoder-bridge/internal/backend"
	"github.com/couchcryptid/geocoder-bridge/internal/bridge"
	"github.com/couchcryptid/geocoder-bridge/internal/config"
	"github.com/couchcryptid/geocoder-bridge/internal/observability"
)

// rootOptions holds the persistent flags of one command tree.
type rootOptions struct {
	verbose bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "geocode",
		Short:        "Resolve addresses with the configured geocoding backend",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	root.AddCommand(queryCmd(opts), reverseCmd(opts))
	return root
}

// run dispatches call through a bridge built from the environment and
// writes the reply as indented JSON. A non-success reply is returned as an
// error after it has been printed.
func run(cmd *cobra.Command, opts *rootOptions, call bridge.MethodCall) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	geocoder, closeGeocoder, err := backend.New(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer closeGeocoder()

	b := bridge.New(geocoder, logger, metrics)
	pending := bridge.NewPending("", call.Method)
	b.HandleMethodCall(ctx, call, pending)

	reply, err := pending.Wait(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(reply); err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	switch {
	case reply.Status == bridge.StatusSuccess:
		return nil
	case reply.Error != nil:
		return fmt.Errorf("%s: %s", reply.Error.Code, reply.Error.Message)
	default:
		return fmt.Errorf("%s", reply.Status)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
