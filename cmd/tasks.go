package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetpipe/internal/config"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/runner"
	"github.com/conneroisu/assetpipe/internal/server"
	"github.com/conneroisu/assetpipe/internal/task"
)

func init() {
	for _, id := range task.IDs {
		rootCmd.AddCommand(newTaskCommand(id))
	}
}

func newTaskCommand(id task.ID) *cobra.Command {
	cmd := &cobra.Command{
		Use:   id.String(),
		Short: id.Description(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, id)
		},
	}

	switch id {
	case task.Watch:
		cmd.Aliases = []string{"w"}
		cmd.Long = `Build once, then serve the project with live reload and rebuild
whenever a stylesheet, script or HTML page changes.

Examples:
  assetpipe watch                  # Serve on localhost:3000
  assetpipe watch --port 8080      # Serve on a different port
  assetpipe watch --host 0.0.0.0   # Listen on all interfaces`
		addServerFlags(cmd)
	case task.Build:
		cmd.Aliases = []string{"b", "default"}
	}

	return cmd
}

func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	}), nil
}

func runTask(cmd *cobra.Command, id task.ID) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	deps := runner.Deps{Config: cfg, Logger: logger}
	if id != task.Watch {
		deps.Notifier = server.NopNotifier{}
	}

	r, err := runner.New(deps)
	if err != nil {
		return fmt.Errorf("failed to set up tasks: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info(ctx, "Shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := r.Run(ctx, id); err != nil {
		return fmt.Errorf("task %s failed: %w", id, err)
	}
	return nil
}
