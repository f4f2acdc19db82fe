//go:build unix

package server

import (
	"context"
	"net"
	"testing"

	"golang.org/x/sys/unix"
)

func TestListen_SetsReuseAddr(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer func() { _ = ln.Close() }()

	rc, err := ln.(*net.TCPListener).SyscallConn()
	if err != nil {
		t.Fatalf("SyscallConn() error = %v", err)
	}

	var val int
	var sockErr error
	if err := rc.Control(func(fd uintptr) {
		val, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR)
	}); err != nil {
		t.Fatalf("Control() error = %v", err)
	}
	if sockErr != nil {
		t.Fatalf("GetsockoptInt() error = %v", sockErr)
	}
	if val == 0 {
		t.Error("SO_REUSEADDR should be enabled on the listening socket")
	}
}
