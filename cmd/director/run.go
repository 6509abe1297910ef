package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peepingotter/director/internal/config"
	"github.com/peepingotter/director/internal/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the director engine",
	Long: `Start the engine with both decision loops and the control socket.
Events arrive through sensor adapters or 'director inject'; the engine speaks
through the configured delivery gate (a logging gate by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.SocketPath = socketPath

		eng, err := engine.New(cfg, engine.Options{ControlSocket: cfg.SocketPath})
		if err != nil {
			return fmt.Errorf("failed to build engine: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := eng.Start(ctx); err != nil {
			return fmt.Errorf("failed to start engine: %w", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		fmt.Printf("\n[director] received %v, shutting down\n", sig)

		eng.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
