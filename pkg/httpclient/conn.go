package httpclient

import (
	"errors"
	"net"
	"time"
)

// ErrConnExpired is returned when a connection exceeds its max lifetime.
// retryTransport treats it specially: it does not count as a retry attempt.
var ErrConnExpired = errors.New("connection expired")

// timedConn wraps net.Conn to enforce a max lifetime. Once expired the
// connection reports itself closed on the next read or write, which forces
// http.Transport to dial a new one (with a fresh DNS lookup).
type timedConn struct {
	net.Conn
	createdAt   time.Time
	maxLifetime time.Duration
}

func (c *timedConn) isExpired() bool {
	return time.Since(c.createdAt) > c.maxLifetime
}

func (c *timedConn) Read(b []byte) (n int, err error) {
	if c.isExpired() {
		_ = c.Close()
		return 0, ErrConnExpired
	}
	return c.Conn.Read(b)
}

func (c *timedConn) Write(b []byte) (n int, err error) {
	if c.isExpired() {
		_ = c.Close()
		return 0, ErrConnExpired
	}
	return c.Conn.Write(b)
}
