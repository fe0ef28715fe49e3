package hw

import "sync"

// FakeLine is an in-memory Line used by tests and by demo-mode runs that
// have no real GPIO hardware attached.
type FakeLine struct {
	mu    sync.Mutex
	level bool
	err   error
}

// NewFakeLine returns a FakeLine initialized to level.
func NewFakeLine(level bool) *FakeLine {
	return &FakeLine{level: level}
}

func (f *FakeLine) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, f.err
}

func (f *FakeLine) Write(level bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.level = level
	return nil
}

// SetErr makes the next and all subsequent operations fail with err.
func (f *FakeLine) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FakeTransceiver is a scriptable Transceiver: each channel has its own
// programmable reading and can be made to fail independently, letting
// tests exercise spec §4.3's per-sensor SensorFail path without affecting
// other channels on the same ADC.
type FakeTransceiver struct {
	mu       sync.Mutex
	readings map[int]uint16
	fail     map[int]bool
}

// NewFakeTransceiver returns a FakeTransceiver with every channel reading 0.
func NewFakeTransceiver() *FakeTransceiver {
	return &FakeTransceiver{readings: map[int]uint16{}, fail: map[int]bool{}}
}

// Set programs the raw value returned for channel.
func (f *FakeTransceiver) Set(channel int, raw uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings[channel] = raw
}

// SetFail makes channel return an error until cleared.
func (f *FakeTransceiver) SetFail(channel int, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[channel] = fail
}

func (f *FakeTransceiver) Transfer(channel int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[channel] {
		return 0, errTransferFailed
	}
	return f.readings[channel], nil
}

var errTransferFailed = fakeErr("hw: simulated SPI transfer failure")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
