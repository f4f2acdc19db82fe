package server

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
)

// net/http answers requests it cannot parse (400, 431, 505, ...) by writing
// a complete response straight to the connection, without running a
// handler. isolatedConn adds the isolation headers to those responses.
//
// A write is treated as such a response only when no handler owns the
// connection: none is running and the conn has read again since the last
// one finished, so any pending handler output has been flushed.
type isolatedConn struct {
	net.Conn

	mu      sync.Mutex
	active  int  // handlers currently running on this conn
	pending bool // a handler ran and its output may not be flushed yet
}

type isolatedListener struct {
	net.Listener
}

func isolateListener(ln net.Listener) net.Listener {
	return &isolatedListener{Listener: ln}
}

func (l *isolatedListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &isolatedConn{Conn: c}, nil
}

type connKey struct{}

// withConn records c on the connection context so handlers can claim it.
func withConn(ctx context.Context, c net.Conn) context.Context {
	if ic, ok := c.(*isolatedConn); ok {
		return context.WithValue(ctx, connKey{}, ic)
	}
	return ctx
}

func connFrom(ctx context.Context) *isolatedConn {
	ic, _ := ctx.Value(connKey{}).(*isolatedConn)
	return ic
}

func (c *isolatedConn) enter() {
	c.mu.Lock()
	c.active++
	c.pending = true
	c.mu.Unlock()
}

func (c *isolatedConn) exit() {
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
}

func (c *isolatedConn) Read(b []byte) (int, error) {
	c.mu.Lock()
	if c.active == 0 {
		c.pending = false
	}
	c.mu.Unlock()
	return c.Conn.Read(b)
}

func (c *isolatedConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	owned := c.active > 0 || c.pending
	c.mu.Unlock()
	if owned {
		return c.Conn.Write(b)
	}

	out, ok := injectIsolation(b)
	if !ok {
		return c.Conn.Write(b)
	}
	if _, err := c.Conn.Write(out); err != nil {
		return 0, err
	}
	return len(b), nil
}

// CloseWrite keeps net/http's half-close before dropping a bad request.
func (c *isolatedConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

var (
	headerEnd     = []byte("\r\n\r\n")
	isolationTail = []byte("\r\n" + HeaderCOEP + ": " + valueCOEP + "\r\n" + HeaderCOOP + ": " + valueCOOP)
)

// injectIsolation inserts the isolation headers into a raw 4xx/5xx
// response whose header block is complete in b.
func injectIsolation(b []byte) ([]byte, bool) {
	if len(b) < len("HTTP/1.1 400") || !bytes.HasPrefix(b, []byte("HTTP/1.")) || b[8] != ' ' {
		return nil, false
	}
	if class := b[9]; class != '4' && class != '5' {
		return nil, false
	}
	end := bytes.Index(b, headerEnd)
	if end < 0 {
		return nil, false
	}
	if bytes.Contains(bytes.ToLower(b[:end]), []byte("\r\n"+strings.ToLower(HeaderCOEP)+":")) {
		return nil, false
	}

	out := make([]byte, 0, len(b)+len(isolationTail))
	out = append(out, b[:end]...)
	out = append(out, isolationTail...)
	out = append(out, b[end:]...)
	return out, true
}
