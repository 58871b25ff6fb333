package tui

import (
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/template"
)

// summarizeError turns a request failure into one actionable line for the
// response pane and the status bar. The full chain is in the error modal.
func summarizeError(err error) string {
	if err == nil {
		return ""
	}

	var field *executor.FieldError
	if errors.As(err, &field) {
		var tmplErr *template.Error
		if errors.As(err, &tmplErr) {
			return "Template error in " + field.Field + " - " + tmplErr.Error()
		}
		return "Invalid " + field.Field + " - " + field.Err.Error()
	}

	var transport *executor.TransportError
	if errors.As(err, &transport) {
		return categorizeTransportError(transport.Err)
	}

	return err.Error()
}

// categorizeTransportError checks typed causes first and falls back to
// matching the error text
func categorizeTransportError(err error) string {
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return "TLS certificate signed by unknown authority - set tls.ca_file or tls.insecure in settings"
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return "TLS hostname mismatch - certificate doesn't match the requested hostname"
	}
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		return "TLS certificate is invalid: " + invalid.Error()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "Connection timeout - server took too long to respond"
		}
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			switch errno {
			case syscall.ECONNREFUSED:
				return "Connection refused - check if server is running and port is correct"
			case syscall.ECONNRESET:
				return "Connection reset by server - server may have crashed or network issue occurred"
			case syscall.ENETUNREACH:
				return "Network unreachable - check network connection and firewall settings"
			case syscall.EHOSTUNREACH:
				return "Host unreachable - check if server is online and accessible"
			}
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS resolution failed - verify hostname is correct and network is available"
	}

	return categorizeRequestError(err.Error())
}

// categorizeRequestError matches well-known transport error texts
func categorizeRequestError(errStr string) string {
	if errStr == "" {
		return ""
	}
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "no such host"),
		strings.Contains(errLower, "dial tcp: lookup"):
		return "DNS resolution failed - verify hostname is correct and network is available"

	case strings.Contains(errLower, "connection refused"):
		return "Connection refused - check if server is running and port is correct"

	case strings.Contains(errLower, "connection reset"):
		return "Connection reset by server - server may have crashed or network issue occurred"

	case strings.Contains(errLower, "network is unreachable"),
		strings.Contains(errLower, "no route to host"):
		return "Network unreachable - check network connection and firewall settings"

	case strings.Contains(errLower, "certificate has expired"):
		return "TLS certificate has expired - contact server administrator or set tls.insecure in settings"

	case strings.Contains(errLower, "handshake"):
		return "TLS handshake failed - check TLS version compatibility and client certificate"

	case strings.Contains(errLower, "x509"),
		strings.Contains(errLower, "tls"),
		strings.Contains(errLower, "certificate"):
		return "TLS/SSL error - check certificate configuration and TLS settings: " + errStr

	case strings.Contains(errLower, "stopped after") && strings.Contains(errLower, "redirect"):
		return "Too many redirects - check server configuration or URL"

	case strings.Contains(errLower, "unsupported protocol"),
		strings.Contains(errLower, "invalid url"),
		strings.Contains(errLower, "missing protocol scheme"):
		return "Invalid URL - verify the URL format and protocol (http/https)"

	case strings.Contains(errLower, "eof"):
		return "Connection closed unexpectedly - server may have terminated the connection prematurely"

	case strings.Contains(errLower, "timeout"),
		strings.Contains(errLower, "timed out"):
		return "Connection timeout - server took too long to respond"
	}

	return "Request failed: " + errStr
}
