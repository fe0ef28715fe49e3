// =============================================================================
// FILE: internal/orchestrator/hardware.go
// ROLE: Hardware construction strategies (spec §9's "pass explicit handles")
// =============================================================================
//
// The orchestrator never constructs hw.Line/hw.ADC implementations itself;
// it is handed a Hardware value built by one of the two factories below.
// Production runs use NewRaspiHardware, wiring gobot's raspi adaptor the
// way other_examples/0c2c3ce2_dlsniper-fmradio wires its i2c connector.
// Bench runs with no stand attached use NewSimulatedHardware, the in-memory
// hw.FakeLine/hw.FakeTransceiver pair that the test suite also uses.
// =============================================================================
package orchestrator

import (
	"fmt"
	"strconv"

	"gobot.io/x/gobot/platforms/raspi"

	"github.com/dmagro/slonk-controller/internal/config"
	"github.com/dmagro/slonk-controller/internal/hw"
)

// Hardware bundles everything the controller needs to touch real lines:
// one ADC per configured chip-select, and the bank of driver lines.
type Hardware struct {
	ADCs    []*hw.ADC
	Drivers *hw.DriverBank
}

// Factory builds a Hardware for the given configuration.
type Factory func(cfg *config.Config) (*Hardware, error)

// NewSimulatedHardware returns a Factory backed entirely by in-memory fakes,
// for bench testing without the physical stand attached.
func NewSimulatedHardware() Factory {
	return func(cfg *config.Config) (*Hardware, error) {
		bus := &hw.Bus{}
		adcs := make([]*hw.ADC, len(cfg.ADCChipSelects))
		for i := range cfg.ADCChipSelects {
			adcs[i] = hw.NewADC(bus, hw.NewFakeLine(true), hw.NewFakeTransceiver())
		}

		lines := make([]hw.Line, len(cfg.Drivers))
		for i, d := range cfg.Drivers {
			lines[i] = hw.NewFakeLine(d.SafeLevel)
		}

		return &Hardware{ADCs: adcs, Drivers: hw.NewDriverBank(lines)}, nil
	}
}

// NewRaspiHardware returns a Factory that talks to a real Raspberry Pi over
// gobot's raspi adaptor: one SPI connection per ADC chip-select and one
// GPIO line per configured driver.
func NewRaspiHardware() Factory {
	return func(cfg *config.Config) (*Hardware, error) {
		adaptor := raspi.NewAdaptor()
		if err := adaptor.Connect(); err != nil {
			return nil, fmt.Errorf("orchestrator: connect raspi adaptor: %w", err)
		}

		bus := &hw.Bus{}
		adcs := make([]*hw.ADC, len(cfg.ADCChipSelects))
		for i, cs := range cfg.ADCChipSelects {
			csLine := hw.NewGobotLine(adaptor, strconv.Itoa(cs))
			conn, err := adaptor.GetSpiConnection(0, 0, 8, uint32(cfg.SPIFrequencyHz))
			if err != nil {
				return nil, fmt.Errorf("orchestrator: spi connection for adc %d: %w", i, err)
			}
			adcs[i] = hw.NewADC(bus, csLine, hw.NewGobotTransceiver(conn))
		}

		lines := make([]hw.Line, len(cfg.Drivers))
		for i, d := range cfg.Drivers {
			line := hw.NewGobotLine(adaptor, strconv.Itoa(d.Pin))
			if err := line.Write(d.SafeLevel); err != nil {
				return nil, fmt.Errorf("orchestrator: init driver %q: %w", d.Label, err)
			}
			lines[i] = line
		}

		return &Hardware{ADCs: adcs, Drivers: hw.NewDriverBank(lines)}, nil
	}
}
