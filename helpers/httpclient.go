package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// CreateHTTPClient builds the probe transport. Timeouts per request are
// applied by the caller via context; the client itself only bounds dialing
// and idle connection reuse.
func CreateHTTPClient(maxIdleConnsPerHost int, skipSSLValidation bool) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 30 * time.Second,
		}).DialContext,
		IdleConnTimeout:     5 * time.Second,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
	}
	if skipSSLValidation {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-in for test targets
	}
	return &http.Client{Transport: transport}
}
