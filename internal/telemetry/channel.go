// =============================================================================
// FILE: internal/telemetry/channel.go
// ROLE: At-most-one-subscriber dashboard sink (spec §4.2)
// =============================================================================
//
// DashChannel is the single ownerless object every sampler, the observer,
// and the command executor all send Messages through. Its contract is
// deliberately asymmetric: a write failure against the dashboard socket is
// swallowed (the subscriber simply goes away, spec §9's first Open
// Question), but a failure writing the append-only send log is a hard
// error, because losing that log means losing the audit trail of what was
// ever actually delivered.
// =============================================================================
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// DashChannel delivers Messages to at most one connected dashboard and
// records every successfully delivered Message in a persistent send log.
type DashChannel struct {
	mu     sync.Mutex
	target io.WriteCloser
	log    io.Writer
	nowFn  func() time.Time
}

// New returns a DashChannel with no connected subscriber, logging sent
// messages to sendLog.
func New(sendLog io.Writer) *DashChannel {
	return &DashChannel{log: sendLog, nowFn: time.Now}
}

// SetChannel replaces the active subscriber. The prior writer, if any, is
// closed. Passing nil clears the subscriber outright.
func (c *DashChannel) SetChannel(w io.WriteCloser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target != nil {
		c.target.Close()
	}
	c.target = w
}

// HasTarget reports whether a subscriber is currently connected.
func (c *DashChannel) HasTarget() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target != nil
}

// Send serializes msg to the current subscriber, if any. A failed write to
// the subscriber clears it (single-shot disconnect) but is not reported as
// an error to the caller — the dashboard disappearing is a normal event,
// not a producer-visible failure. A failure appending to the send log is
// always returned.
func (c *DashChannel) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == nil {
		return nil
	}

	encoded, err := json.Marshal(msg)
	if err != nil {
		// A message that cannot be marshaled is a programmer error in one
		// of the constructors in message.go, not a dashboard hiccup.
		return fmt.Errorf("telemetry: marshal message: %w", err)
	}

	if _, err := c.target.Write(encoded); err != nil {
		c.target.Close()
		c.target = nil
		return nil
	}

	if c.log == nil {
		return nil
	}
	if _, err := fmt.Fprintf(c.log, "%d,%s\n", c.nowFn().UnixNano(), encoded); err != nil {
		return fmt.Errorf("telemetry: write send log: %w", err)
	}
	return nil
}
