package http

import (
	"crypto/tls"
	"net/http"
)

// insecureTransport returns an http.RoundTripper that skips TLS certificate
// verification. Dev/test only.
func insecureTransport() http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return transport
}
