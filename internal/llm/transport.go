package llm

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"sync/atomic"
	"time"
)

const (
	connectTimeout      = 30 * time.Second
	responseTimeout     = 60 * time.Second
	chatResponseTimeout = 30 * time.Second
)

// newTransport returns a round tripper whose connections fail a read that
// waits longer than readTimeout once the request has been written, whether
// for response headers or the next chunk of a streamed body. Uploading the
// request body is bounded only by the caller's context.
func newTransport(proxy Proxy, readTimeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &readTimeoutTransport{
		base: &http.Transport{
			Proxy: proxy.ProxyURL,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				conn, err := dialer.DialContext(ctx, network, addr)
				if err != nil {
					return nil, err
				}
				return newIdleTimeoutConn(conn, readTimeout), nil
			},
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: readTimeout,
			MaxIdleConns:          10,
			// Idle connections are retired before their pending read times out.
			IdleConnTimeout: readTimeout / 2,
		},
	}
}

// readTimeoutTransport disarms the read timeout of the connection a request
// is assigned to and re-arms it when the request has been written.
type readTimeoutTransport struct {
	base *http.Transport
}

func (t *readTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var current atomic.Pointer[idleTimeoutConn]
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			conn := unwrapIdleTimeoutConn(info.Conn)
			if conn == nil {
				return
			}
			conn.disarm()
			current.Store(conn)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			if conn := current.Load(); conn != nil {
				conn.arm()
			}
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	return t.base.RoundTrip(req)
}

func unwrapIdleTimeoutConn(conn net.Conn) *idleTimeoutConn {
	if tlsConn, ok := conn.(*tls.Conn); ok {
		conn = tlsConn.NetConn()
	}
	idle, _ := conn.(*idleTimeoutConn)
	return idle
}

// idleTimeoutConn starts armed so the TLS handshake and proxy CONNECT
// exchange are bounded too.
type idleTimeoutConn struct {
	net.Conn
	timeout time.Duration

	mu    sync.Mutex
	armed bool
}

func newIdleTimeoutConn(conn net.Conn, timeout time.Duration) *idleTimeoutConn {
	return &idleTimeoutConn{Conn: conn, timeout: timeout, armed: true}
}

// arm and disarm also apply to a read already blocked on the connection.
func (c *idleTimeoutConn) arm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
}

func (c *idleTimeoutConn) disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
	_ = c.Conn.SetReadDeadline(time.Time{})
}

func (c *idleTimeoutConn) Read(b []byte) (int, error) {
	c.mu.Lock()
	if c.armed {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			c.mu.Unlock()
			return 0, err
		}
	}
	c.mu.Unlock()
	return c.Conn.Read(b)
}
