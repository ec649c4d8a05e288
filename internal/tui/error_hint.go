package tui

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

const (
	hintTimeout = "Request timeout - the proxy or target is slow, try raising timeout_seconds in settings"
	hintRefused = "Connection refused - check the proxy_template host and port"
)

// errorHint turns a transport error message into an actionable footer hint.
// The display still shows the raw message.
func errorHint(errStr string) string {
	if errStr == "" {
		return ""
	}

	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "context canceled"),
		strings.Contains(errLower, "context cancelled"):
		return "Request cancelled"

	case strings.Contains(errLower, "deadline exceeded"):
		return hintTimeout

	case strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "dial tcp: lookup"):
		return "DNS resolution failed - verify the proxy hostname and that the network is available"

	case strings.Contains(errLower, "connection refused"):
		return hintRefused

	case strings.Contains(errLower, "connection reset"):
		return "Connection reset by the proxy - it may have dropped the request"

	case strings.Contains(errLower, "network is unreachable"),
		strings.Contains(errLower, "no route to host"):
		return "Network unreachable - check network connection and firewall settings"

	case strings.Contains(errLower, "tls"),
		strings.Contains(errLower, "certificate"),
		strings.Contains(errLower, "x509"):
		return tlsHint(errLower, errStr)

	case strings.Contains(errLower, "stopped after") && strings.Contains(errLower, "redirect"):
		return "Too many redirects - check the proxy or the target URL"

	case strings.Contains(errLower, "unsupported protocol"),
		strings.Contains(errLower, "invalid url"):
		return "Invalid URL - check proxy_template, it must produce an http(s) URL"

	case strings.Contains(errLower, "invalid json response"):
		return "The response claims JSON but does not parse - toggle force raw to see it as is"

	case strings.Contains(errLower, "eof"):
		return "Connection closed unexpectedly - the proxy terminated the response early"

	case strings.Contains(errLower, "timeout"),
		strings.Contains(errLower, "timed out"):
		return hintTimeout
	}

	return "Request failed: " + errStr
}

func tlsHint(errLower, errStr string) string {
	switch {
	case strings.Contains(errLower, "unknown authority"):
		return "TLS certificate is not trusted - set ca_file or insecure_skip_verify in settings"
	case strings.Contains(errLower, "expired"):
		return "TLS certificate has expired - set insecure_skip_verify to bypass (insecure)"
	case strings.Contains(errLower, "certificate is valid for"):
		return "TLS hostname mismatch - certificate doesn't match the proxy hostname"
	case strings.Contains(errLower, "handshake"):
		return "TLS handshake failed - check TLS version compatibility"
	}
	return "TLS error - check ca_file and TLS settings: " + errStr
}

// errorHintFor inspects the error chain before falling back to the message
func errorHintFor(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return hintTimeout
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return hintRefused
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return hintTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return hintTimeout
	}

	return errorHint(err.Error())
}
