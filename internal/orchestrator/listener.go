// =============================================================================
// FILE: internal/orchestrator/listener.go
// ROLE: Dashboard TCP listener with SO_REUSEPORT (spec §4.7)
// =============================================================================
package orchestrator

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listen binds addr with SO_REUSEPORT set on the underlying socket, so a
// replacement controller process can rebind the same port immediately
// after a crash without waiting out TIME_WAIT.
func listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}
