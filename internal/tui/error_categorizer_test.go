package tui

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/template"
)

func TestCategorizeRequestError(t *testing.T) {
	tests := []struct {
		name     string
		errStr   string
		wantText string
	}{
		{"empty error", "", ""},
		{"DNS lookup failure", "dial tcp: lookup nonexistent.example.com: no such host",
			"DNS resolution failed - verify hostname is correct and network is available"},
		{"connection refused", "dial tcp 127.0.0.1:9999: connect: connection refused",
			"Connection refused - check if server is running and port is correct"},
		{"connection reset", "read tcp 127.0.0.1:8080->127.0.0.1:54321: read: connection reset by peer",
			"Connection reset by server - server may have crashed or network issue occurred"},
		{"certificate expired", "x509: certificate has expired or is not yet valid",
			"TLS certificate has expired - contact server administrator or set tls.insecure in settings"},
		{"handshake failure", "remote error: tls: handshake failure",
			"TLS handshake failed - check TLS version compatibility and client certificate"},
		{"network unreachable", "dial tcp: network is unreachable",
			"Network unreachable - check network connection and firewall settings"},
		{"too many redirects", `Get "http://example.com": stopped after 10 redirects`,
			"Too many redirects - check server configuration or URL"},
		{"invalid URL", `unsupported protocol scheme "ftp"`,
			"Invalid URL - verify the URL format and protocol (http/https)"},
		{"unexpected EOF", "unexpected EOF",
			"Connection closed unexpectedly - server may have terminated the connection prematurely"},
		{"unknown", "something odd", "Request failed: something odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeRequestError(tt.errStr); got != tt.wantText {
				t.Errorf("categorizeRequestError(%q) = %q, want %q", tt.errStr, got, tt.wantText)
			}
		})
	}
}

func TestCategorizeTransportError_Typed(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: fmt.Errorf("connect: %w", syscall.ECONNREFUSED)}
	if got := categorizeTransportError(refused); !strings.HasPrefix(got, "Connection refused") {
		t.Errorf("Expected connection refused, got %q", got)
	}

	dns := &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}
	if got := categorizeTransportError(fmt.Errorf("dial: %w", dns)); !strings.HasPrefix(got, "DNS resolution failed") {
		t.Errorf("Expected DNS failure, got %q", got)
	}
}

func TestSummarizeError(t *testing.T) {
	if summarizeError(nil) != "" {
		t.Error("Expected empty summary for nil")
	}

	tmplErr := &executor.FieldError{
		Field: "url",
		Err:   &template.Error{Kind: template.KindFieldUnknown, Ident: "host"},
	}
	if got := summarizeError(tmplErr); got != `Template error in url - unknown field "host"` {
		t.Errorf("Unexpected summary %q", got)
	}

	methodErr := &executor.FieldError{Field: "method", Err: fmt.Errorf("%w %q", executor.ErrInvalidMethod, "GE T")}
	if got := summarizeError(methodErr); got != `Invalid method - invalid HTTP method "GE T"` {
		t.Errorf("Unexpected summary %q", got)
	}

	transport := &executor.TransportError{Err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")}
	if got := summarizeError(transport); !strings.HasPrefix(got, "Connection refused") {
		t.Errorf("Unexpected summary %q", got)
	}

	if got := summarizeError(errors.New("plain")); got != "plain" {
		t.Errorf("Unexpected summary %q", got)
	}
}
