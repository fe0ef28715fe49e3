// =============================================================================
// FILE: internal/command/executor.go
// ROLE: Command dispatch and the ignition-sequence interpreter (spec §4.6)
// =============================================================================
package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/hw"
	"github.com/dmagro/slonk-controller/internal/statemachine"
	"github.com/dmagro/slonk-controller/internal/telemetry"
)

// CommandLog is the minimal capability the executor needs from
// commands.csv: append one already-formatted line.
type CommandLog interface {
	Append(line string) error
}

// Executor dispatches decoded commands against the shared controller
// resources and owns the single in-flight ignition sequence, if any.
type Executor struct {
	cfg     *config.Config
	state   *statemachine.Machine
	drivers *hw.DriverBank
	dash    *telemetry.DashChannel
	log     CommandLog
	now     func() time.Time

	seqMu      sync.Mutex
	seqRunning bool
	seqCancel  context.CancelFunc
}

// New builds an Executor over the given shared resources.
func New(cfg *config.Config, state *statemachine.Machine, drivers *hw.DriverBank, dash *telemetry.DashChannel, log CommandLog) *Executor {
	return &Executor{cfg: cfg, state: state, drivers: drivers, dash: dash, log: log, now: time.Now}
}

// Execute logs raw (the verbatim bytes that decoded to cmd) to commands.csv
// and then dispatches cmd. A log-write failure is always returned to the
// caller as a hard error, per spec §7. Refused commands (unknown type,
// driver id out of range, protected driver in Standby, Ignition outside
// Standby or during a sequence) are not returned; they produce an Error
// message on the dashboard channel. A failed driver-line write during
// Actuate and a send-log failure are returned.
func (e *Executor) Execute(raw []byte, cmd Command) error {
	if err := e.log.Append(fmt.Sprintf("%d,%s\n", e.now().UnixNano(), raw)); err != nil {
		return fmt.Errorf("command: write commands.csv: %w", err)
	}

	switch cmd.Type {
	case Ready:
		return e.dash.Send(telemetry.Ready())

	case Actuate:
		return e.actuate(cmd)

	case EmergencyStop:
		return e.emergencyStop()

	case Ignition:
		return e.ignition(raw)

	default:
		return e.dash.Send(telemetry.ErrMalformed(string(raw), fmt.Sprintf("unknown command type %q", cmd.Type)))
	}
}

func (e *Executor) actuate(cmd Command) error {
	if cmd.DriverID < 0 || cmd.DriverID >= len(e.cfg.Drivers) {
		return e.dash.Send(telemetry.ErrMalformed("", fmt.Sprintf("driver id %d out of range", cmd.DriverID)))
	}

	driver := e.cfg.Drivers[cmd.DriverID]
	if driver.Protected && e.state.Get() == statemachine.Standby {
		return e.dash.Send(telemetry.ErrPermission(fmt.Sprintf("driver %q is protected and state is Standby", driver.Label)))
	}

	return e.drivers.Write(cmd.DriverID, cmd.Value)
}

// emergencyStop is always legal: it cancels any in-flight ignition
// sequence, restores every driver to its configured safe level, and forces
// the state to Standby.
func (e *Executor) emergencyStop() error {
	e.seqMu.Lock()
	if e.seqRunning && e.seqCancel != nil {
		e.seqCancel()
	}
	e.seqMu.Unlock()

	e.restoreSafeLevels()
	e.state.Force(statemachine.Standby)
	return nil
}

func (e *Executor) restoreSafeLevels() {
	for i, d := range e.cfg.Drivers {
		e.drivers.Write(i, d.SafeLevel)
	}
}

// ignition validates preconditions, transitions Standby -> PreIgnite, and
// launches the sequence interpreter in its own goroutine so the command
// loop remains free to receive a preempting EmergencyStop.
func (e *Executor) ignition(raw []byte) error {
	e.seqMu.Lock()
	if e.seqRunning {
		e.seqMu.Unlock()
		return e.dash.Send(telemetry.ErrMalformed(string(raw), "sequence in progress"))
	}

	if err := e.state.TryTransition(statemachine.PreIgnite); err != nil {
		e.seqMu.Unlock()
		return e.dash.Send(telemetry.ErrMalformed(string(raw), err.Error()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.seqRunning = true
	e.seqCancel = cancel
	e.seqMu.Unlock()

	go e.runSequence(ctx)
	return nil
}

// runSequence drives the scripted ignition timeline with monotonic-clock
// precision: every step's deadline is computed once from the anchor time
// t0, never by chaining successive sleeps, so the interpreter cannot
// accumulate drift (spec §4.6).
func (e *Executor) runSequence(ctx context.Context) {
	defer func() {
		e.seqMu.Lock()
		e.seqRunning = false
		e.seqCancel = nil
		e.seqMu.Unlock()
	}()

	steps := make([]config.SeqStep, len(e.cfg.IgnitionSeq))
	copy(steps, e.cfg.IgnitionSeq)
	sort.Slice(steps, func(i, j int) bool { return steps[i].OffsetMs < steps[j].OffsetMs })

	hasIgniteMarker := false
	for _, s := range steps {
		if s.Ignite {
			hasIgniteMarker = true
			break
		}
	}

	t0 := time.Now()

	if !hasIgniteMarker {
		e.state.TryTransition(statemachine.Ignite)
	}

	for _, step := range steps {
		deadline := t0.Add(time.Duration(step.OffsetMs) * time.Millisecond)

		select {
		case <-ctx.Done():
			e.restoreSafeLevels()
			e.state.Force(statemachine.Standby)
			return
		case <-time.After(time.Until(deadline)):
		}

		select {
		case <-ctx.Done():
			e.restoreSafeLevels()
			e.state.Force(statemachine.Standby)
			return
		default:
		}

		switch step.Action.Type {
		case config.ActionActuate:
			e.drivers.Write(step.Action.DriverID, step.Action.Level)
		case config.ActionSleep:
			// nothing to do; the wait above already elapsed.
		}

		if step.Ignite {
			e.state.TryTransition(statemachine.Ignite)
		}
	}

	e.restoreSafeLevels()
	e.state.TryTransition(statemachine.Standby)
}
