package httpclient

import (
	"net"
	"net/http"
	"time"
)

// UserAgent is sent on every outbound request.
const UserAgent = "QuakeAlert/1.0 (Go)"

// New returns a client with a bounded overall timeout and conservative dial
// and TLS handshake limits.
func New(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
