// =============================================================================
// FILE: internal/orchestrator/orchestrator.go
// ROLE: Wiring, log file layout, and the dashboard accept loop (spec §4.7)
// =============================================================================
package orchestrator

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/slonk-controller/internal/command"
	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/csvlog"
	"github.com/dmagro/slonk-controller/internal/logging"
	"github.com/dmagro/slonk-controller/internal/observer"
	"github.com/dmagro/slonk-controller/internal/sampler"
	"github.com/dmagro/slonk-controller/internal/statemachine"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

// ListenAddr is the fixed dashboard listening address (spec §4.7).
const ListenAddr = "0.0.0.0:2707"

// Orchestrator starts every long-lived execution context, owns the log
// files, and runs the dashboard accept loop.
type Orchestrator struct {
	cfg     *config.Config
	logsDir string
	console zerolog.Logger
	hw      Factory
}

// New builds an Orchestrator. hwFactory constructs the hardware backing
// (real Raspberry Pi, or an in-memory simulation).
func New(cfg *config.Config, logsDir string, console zerolog.Logger, hwFactory Factory) *Orchestrator {
	return &Orchestrator{cfg: cfg, logsDir: logsDir, console: console, hw: hwFactory}
}

// Run wires every component and blocks until ctx is cancelled or a fatal
// error occurs in any of them, per spec §5's "no cooperative scheduler"
// thread model: each long-lived context is one goroutine under a shared
// errgroup, and any fatal error cancels the rest.
func (o *Orchestrator) Run(ctx context.Context) error {
	hardware, err := o.hw(o.cfg)
	if err != nil {
		return fmt.Errorf("orchestrator: acquire hardware: %w", err)
	}

	commandsLog, err := csvlog.Create(filepath.Join(o.logsDir, "commands.csv"))
	if err != nil {
		return fmt.Errorf("orchestrator: open commands.csv: %w", err)
	}
	driversLog, err := csvlog.Create(filepath.Join(o.logsDir, "drivers.csv"))
	if err != nil {
		return fmt.Errorf("orchestrator: open drivers.csv: %w", err)
	}
	sentLog, err := csvlog.Create(filepath.Join(o.logsDir, "sent.csv"))
	if err != nil {
		return fmt.Errorf("orchestrator: open sent.csv: %w", err)
	}

	dash := telemetry.New(sentLog)
	state := statemachine.New()
	executor := command.New(o.cfg, state, hardware.Drivers, dash, commandsLog)

	initial := make([]bool, len(o.cfg.Drivers))
	for i, d := range o.cfg.Drivers {
		initial[i] = d.SafeLevel
	}
	driverPollPeriod := time.Duration(o.cfg.DriverPollPeriodMs) * time.Millisecond
	obs := observer.New(hardware.Drivers, dash, driversLog, initial, driverPollPeriod)

	samplers := make([]*sampler.Sampler, len(o.cfg.SensorGroups))
	for gi, group := range o.cfg.SensorGroups {
		logs := make([]*csvlog.Writer, len(group.Sensors))
		for si, s := range group.Sensors {
			path := filepath.Join(o.logsDir, group.Label, s.Label+".csv")
			w, err := csvlog.Create(path)
			if err != nil {
				return fmt.Errorf("orchestrator: open %s: %w", path, err)
			}
			logs[si] = w
		}
		samplers[gi] = sampler.New(uint8(gi), group, hardware.ADCs, state, dash, logs)
	}

	ln, err := listen(ListenAddr)
	if err != nil {
		return fmt.Errorf("orchestrator: listen %s: %w", ListenAddr, err)
	}
	defer ln.Close()

	printBanner(o.cfg)
	logging.Banner(fmt.Sprintf("slonk controller listening on %s", ListenAddr))
	o.console.Info().Str("addr", ListenAddr).Msg("dashboard listener ready")

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range samplers {
		s := s
		g.Go(func() error { return s.Run(gctx) })
	}
	g.Go(func() error { return obs.Run(gctx) })
	g.Go(func() error { return o.acceptLoop(gctx, ln, dash, executor) })

	err = g.Wait()
	logging.Banner("slonk controller shutting down")
	o.console.Info().Msg("shutdown")
	return err
}

func (o *Orchestrator) acceptLoop(ctx context.Context, ln net.Listener, dash *telemetry.DashChannel, executor *command.Executor) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("orchestrator: accept: %w", err)
		}

		o.console.Info().Str("remote", conn.RemoteAddr().String()).Msg("dashboard connected")
		dash.SetChannel(conn)
		if err := dash.Send(telemetry.ConfigMsg(o.cfg)); err != nil {
			return fmt.Errorf("orchestrator: send config: %w", err)
		}

		if err := o.commandLoop(ctx, conn, dash, executor); err != nil {
			return err
		}
		dash.SetChannel(nil)
	}
}

func (o *Orchestrator) commandLoop(ctx context.Context, conn net.Conn, dash *telemetry.DashChannel, executor *command.Executor) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	parser := command.NewParser(conn)
	for {
		outcome := parser.Next()
		switch {
		case outcome.Command != nil:
			if err := executor.Execute(outcome.Raw, *outcome.Command); err != nil {
				return err
			}
		case outcome.Malformed != nil:
			if err := dash.Send(telemetry.ErrMalformed(string(outcome.Malformed), "could not parse command frame")); err != nil {
				return err
			}
		case outcome.SourceClosed:
			o.console.Info().Msg("dashboard disconnected")
			return nil
		case outcome.Err != nil:
			o.console.Warn().Err(outcome.Err).Msg("dashboard link error")
			return nil
		}
	}
}
