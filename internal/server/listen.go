package server

import (
	"context"
	"net"
)

// Listen opens a TCP listener on addr with address reuse enabled, so a
// restarted server can rebind a port whose previous socket is in TIME_WAIT.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	return lc.Listen(ctx, "tcp", addr)
}
