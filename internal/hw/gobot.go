// =============================================================================
// FILE: internal/hw/gobot.go
// ROLE: Real-hardware backing for Line and Transceiver, via gobot
// =============================================================================
//
// gobot.io/x/gobot is the robotics/IoT driver framework the corpus reaches
// for when it needs to talk to real GPIO/SPI/I2C peripherals (grounded in
// the fmradio driver, which wraps a gobot connector behind exactly this
// kind of thin adapter struct). The raspi platform adaptor satisfies both
// gpio.DigitalWriter/DigitalReader (for driver and chip-select lines) and
// spi.Connector (for the ADC bus), so one adaptor instance backs every
// gobotLine and every SPI connection a gobotTransceiver wraps.
// =============================================================================
package hw

import (
	"fmt"

	"gobot.io/x/gobot/drivers/gpio"
	"gobot.io/x/gobot/drivers/spi"
)

// DigitalConnector is the subset of a gobot adaptor this package needs for
// GPIO lines: gobot.io/x/gobot/platforms/raspi.Adaptor satisfies it.
type DigitalConnector interface {
	gpio.DigitalWriter
	gpio.DigitalReader
}

// gobotLine adapts a single named GPIO pin on a DigitalConnector to Line.
type gobotLine struct {
	conn DigitalConnector
	pin  string
}

// NewGobotLine wraps pin (as gobot names it, e.g. "7" or "GPIO7") on conn.
func NewGobotLine(conn DigitalConnector, pin string) Line {
	return &gobotLine{conn: conn, pin: pin}
}

func (l *gobotLine) Read() (bool, error) {
	v, err := l.conn.DigitalRead(l.pin)
	if err != nil {
		return false, fmt.Errorf("hw: digital read %s: %w", l.pin, err)
	}
	return v != 0, nil
}

func (l *gobotLine) Write(level bool) error {
	var v byte
	if level {
		v = 1
	}
	if err := l.conn.DigitalWrite(l.pin, v); err != nil {
		return fmt.Errorf("hw: digital write %s: %w", l.pin, err)
	}
	return nil
}

// gobotTransceiver performs a 12-bit conversion over a gobot SPI
// connection, in the framing a MCP3208-family 8-channel 12-bit ADC expects:
// a start bit, single-ended mode, and a 3-bit channel select, followed by
// two bytes carrying the 12-bit result.
type gobotTransceiver struct {
	conn spi.Connection
}

// NewGobotTransceiver wraps an already-opened SPI connection (e.g. from
// spi.Connector.GetSpiConnection) as a Transceiver.
func NewGobotTransceiver(conn spi.Connection) Transceiver {
	return &gobotTransceiver{conn: conn}
}

func (t *gobotTransceiver) Transfer(channel int) (uint16, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("hw: channel %d out of range", channel)
	}

	tx := []byte{
		0x06 | byte(channel>>2),
		byte(channel<<6) & 0xC0,
		0x00,
	}
	rx := make([]byte, len(tx))

	if err := t.conn.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("hw: spi transfer: %w", err)
	}

	raw := (uint16(rx[1]&0x0F) << 8) | uint16(rx[2])
	return raw, nil
}
