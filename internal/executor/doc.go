/*
Package executor turns recipes into HTTP requests and runs them.

# Building

BuildRequest renders the method, URL, every header name and value, and the
body through the template package. Method and header names must be valid
HTTP tokens after rendering. The first failing field aborts the build with a
*FieldError naming that field; nothing is sent.

# Sending

SendRequest starts a goroutine and returns without blocking. The goroutine
executes the request, reads the status and headers, buffers the whole body
as text, and writes the outcome into the request's result slot. The slot is
written exactly once. Transport failures are stored as *TransportError.

There are no retries and no client timeout. Requests cannot be cancelled
once sent.

# TLS Configuration

TLS support includes:
  - Custom CA certificates
  - Client certificates (mTLS)
  - InsecureSkipVerify for development

# Thread Safety

An Engine is safe for concurrent use. Each request's result slot is written
by its own goroutine and may be read from any other.
*/
package executor
