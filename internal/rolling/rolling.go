// Package rolling implements the fixed-size per-sensor rolling window of
// spec §3/§9: the last W raw readings with their timestamps, supporting
// constant-amortized append and O(1) mean via running-sum bookkeeping. The
// index arithmetic follows the same fixed-capacity ring technique used by
// the rate-limiter's event ring in the corpus (a read cursor and a write
// cursor modulo the capacity), generalized here to an arbitrary window size
// rather than one constrained to a power of two.
package rolling

import "time"

// Sample is one raw reading and the time it was taken.
type Sample struct {
	Raw  uint16
	Time time.Time
}

// Window is a fixed-capacity ring of the most recent W samples for one
// sensor, with a running sum so Mean is O(1).
type Window struct {
	buf  []Sample
	next int
	size int
	sum  int64
}

// New returns a Window holding up to capacity samples.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{buf: make([]Sample, capacity)}
}

// Push appends s, evicting the oldest sample if the window is already full.
func (w *Window) Push(s Sample) {
	if w.size == len(w.buf) {
		evicted := w.buf[w.next]
		w.sum -= int64(evicted.Raw)
	} else {
		w.size++
	}
	w.buf[w.next] = s
	w.sum += int64(s.Raw)
	w.next = (w.next + 1) % len(w.buf)
}

// Len returns the number of samples currently held (<= capacity).
func (w *Window) Len() int { return w.size }

// Mean returns the average raw value of the samples currently held, or 0
// if the window is empty.
func (w *Window) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	return float64(w.sum) / float64(w.size)
}

// Latest returns the most recently pushed sample and true, or the zero
// Sample and false if the window is empty.
func (w *Window) Latest() (Sample, bool) {
	if w.size == 0 {
		return Sample{}, false
	}
	idx := (w.next - 1 + len(w.buf)) % len(w.buf)
	return w.buf[idx], true
}
