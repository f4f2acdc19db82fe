package server

import (
	"context"
	"net/http"
	"testing"
)

func TestListen_RebindAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ln, err := Listen(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()

	srv := New(testConfig(t.TempDir()), RootFs(t.TempDir()), discardLogger())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// Leave a closed connection behind so the port has TIME_WAIT state.
	resp, err := http.Get("http://" + addr + "/missing.txt")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	_ = resp.Body.Close()
	http.DefaultClient.CloseIdleConnections()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	ln2, err := Listen(context.Background(), addr)
	if err != nil {
		t.Fatalf("rebinding %s after restart failed: %v", addr, err)
	}
	_ = ln2.Close()
}

func TestListen_AddressInUse(t *testing.T) {
	ln, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer func() { _ = ln.Close() }()

	if ln2, err := Listen(context.Background(), ln.Addr().String()); err == nil {
		_ = ln2.Close()
		t.Error("Listen() on a port with an active listener should fail")
	}
}
