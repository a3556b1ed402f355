package gateway

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient creates the HTTP client used for all backend calls. There is
// no per-call timeout at the gateway layer; the transport-level limits here
// are the only ones enforced.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: transport,
	}
}
