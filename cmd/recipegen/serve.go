package main

import (
	"context"
	"fmt"

	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/container"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	app := fx.New(container.Module(cfg, container.ConfigPath(opts.ConfigPath)))
	if err := app.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Blocks until SIGINT/SIGTERM or a fatal server error
	signal := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop application gracefully: %w", err)
	}

	if signal.ExitCode != 0 {
		return fmt.Errorf("application exited with code %d", signal.ExitCode)
	}
	return nil
}
