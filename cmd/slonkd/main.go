// =============================================================================
// FILE: cmd/slonkd/main.go
// ROLE: Entry point — loads configuration, wires the orchestrator, runs until
//       signaled or fatal
// =============================================================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/logging"
	"github.com/dmagro/slonk-controller/internal/orchestrator"
)

var simulate bool

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slonkd <config.json> <logs-dir>",
		Short: "Ground-side controller for a rocket-engine test stand",
		Long: `slonkd samples analog sensors through SPI-attached ADCs, actuates
solenoid/valve drivers through GPIO output lines, executes scripted
ignition sequences, logs every sample and command to disk, and streams
live telemetry to a dashboard over TCP.`,
		Args: cobra.MinimumNArgs(2),
		RunE: run,
	}
	cmd.Flags().BoolVar(&simulate, "simulate", false,
		"use in-memory fake hardware instead of a real Raspberry Pi (bench testing without the stand attached)")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) > 2 {
		fmt.Fprintf(os.Stderr, "warning: ignoring extra argument(s): %v\n", args[2:])
	}
	cfgPath, logsDir := args[0], args[1]

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("args: %w", err)
	}

	if err := os.Mkdir(logsDir, 0o755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("io: create logs directory %s: %w", logsDir, err)
	}

	console, closer, err := logging.New(logsDir)
	if err != nil {
		return fmt.Errorf("io: open console log: %w", err)
	}
	defer closer.Close()

	hwFactory := orchestrator.NewRaspiHardware()
	if simulate {
		hwFactory = orchestrator.NewSimulatedHardware()
		console.Warn().Msg("running against simulated hardware; no physical stand attached")
	}

	orch := orchestrator.New(cfg, logsDir, console, hwFactory)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		console.Info().Msg("received shutdown signal")
		cancel()
	}()

	return orch.Run(ctx)
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "slonkd: %v\n", err)
		os.Exit(1)
	}
}
