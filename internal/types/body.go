package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
)

// ContentType is the body format declared by a response
type ContentType int

const (
	ContentTypeJSON ContentType = iota
	ContentTypeText
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeJSON:
		return "json"
	default:
		return "text"
	}
}

// ErrNotJSON is returned when a JSON view is requested of a non-JSON body
var ErrNotJSON = errors.New("response body is not JSON")

// ParsedBody is a response body decoded according to its content type
type ParsedBody struct {
	ContentType ContentType
	// Decoded value, only for JSON bodies
	Value any
	Text  string
}

// ContentType returns the body format declared by the Content-Type header.
// A missing or unparseable header is treated as JSON.
func (r *Response) ContentType() ContentType {
	header := r.Headers.Get("Content-Type")
	if header == "" {
		return ContentTypeJSON
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ContentTypeJSON
	}
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		return ContentTypeJSON
	}
	return ContentTypeText
}

// ParseBody decodes the body according to the declared content type
func (r *Response) ParseBody() (*ParsedBody, error) {
	contentType := r.ContentType()
	parsed := &ParsedBody{ContentType: contentType, Text: r.Body}
	if contentType == ContentTypeJSON {
		value, err := decodeJSON(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
		}
		parsed.Value = value
	}
	return parsed, nil
}

// JSON returns the decoded JSON value, or ErrNotJSON for other content types
func (p *ParsedBody) JSON() (any, error) {
	if p.ContentType != ContentTypeJSON {
		return nil, fmt.Errorf("%w: content type is %s", ErrNotJSON, p.ContentType)
	}
	return p.Value, nil
}

// decodeJSON decodes a single JSON value. Numbers stay json.Number so large
// integers survive extraction unchanged.
func decodeJSON(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return value, nil
}
