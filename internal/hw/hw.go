// Package hw defines the narrow hardware-access interfaces the rest of the
// controller is built against (spec §9: "pass explicit handles so tests can
// substitute in-memory fakes satisfying the same read/write capability").
//
// Nothing in this package bit-bangs an SPI clock — per spec §1 that is out
// of scope and taken as a primitive read/write of a 12-bit sample. What it
// does own is the locking discipline spec §5 requires: one mutex per SPI
// bus, one mutex per ADC, and one mutex guarding the whole vector of driver
// lines.
package hw

import (
	"fmt"
	"sync"
)

// Line is a single GPIO line capable of reading or writing a logic level.
type Line interface {
	Read() (bool, error)
	Write(level bool) error
}

// Transceiver performs the primitive SPI transfer that yields a 12-bit
// sample for a given ADC channel. Implementations are responsible for
// whatever chip-specific framing their ADC needs.
type Transceiver interface {
	Transfer(channel int) (uint16, error)
}

// Bus is the single shared SPI bus. Every ADC hangs off the same clock and
// data lines, so a transfer on any ADC must hold the bus-wide mutex for its
// duration (spec §5).
type Bus struct {
	mu sync.Mutex
}

// Lock acquires exclusive use of the physical bus.
func (b *Bus) Lock() { b.mu.Lock() }

// Unlock releases the physical bus.
func (b *Bus) Unlock() { b.mu.Unlock() }

// ADC is one chip-select-addressed converter on the shared bus. Besides the
// bus-wide lock, each ADC has its own mutex so that only one channel read
// proceeds against it at a time (spec §5) — relevant once a bus supports
// more concurrency than a single global lock would allow.
type ADC struct {
	mu  sync.Mutex
	bus *Bus
	cs  Line
	tx  Transceiver
}

// NewADC constructs an ADC bound to bus, selected by cs, transferring
// through tx.
func NewADC(bus *Bus, cs Line, tx Transceiver) *ADC {
	return &ADC{bus: bus, cs: cs, tx: tx}
}

// Read performs a single-channel 12-bit conversion.
func (a *ADC) Read(channel int) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.bus.Lock()
	defer a.bus.Unlock()

	if a.cs != nil {
		if err := a.cs.Write(false); err != nil {
			return 0, fmt.Errorf("hw: assert chip-select: %w", err)
		}
		defer a.cs.Write(true)
	}

	raw, err := a.tx.Transfer(channel)
	if err != nil {
		return 0, err
	}
	return raw & 0x0FFF, nil
}

// DriverBank is the shared vector of driver GPIO lines. The executor
// (writer) and the observer (reader) both take its mutex for the minimum
// time needed (spec §5).
type DriverBank struct {
	mu    sync.Mutex
	lines []Line
}

// NewDriverBank wraps lines as a DriverBank.
func NewDriverBank(lines []Line) *DriverBank {
	return &DriverBank{lines: lines}
}

// Len returns the number of driver lines.
func (d *DriverBank) Len() int {
	return len(d.lines)
}

// Write sets driver i to level.
func (d *DriverBank) Write(i int, level bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("hw: driver index %d out of range", i)
	}
	return d.lines[i].Write(level)
}

// ReadAll returns the current logic level of every driver line, in
// configuration order.
func (d *DriverBank) ReadAll() ([]bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]bool, len(d.lines))
	for i, l := range d.lines {
		v, err := l.Read()
		if err != nil {
			return nil, fmt.Errorf("hw: read driver %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
