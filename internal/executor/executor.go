package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/http/httpguts"
)

// Engine builds requests from recipes and executes them in the background
type Engine struct {
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine with an HTTP client configured from tlsConfig.
// tlsConfig may be nil.
func NewEngine(tlsConfig *types.TLSConfig, logger *zap.Logger) (*Engine, error) {
	client, err := buildHTTPClient(tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	return NewEngineWithClient(client, logger), nil
}

// NewEngineWithClient creates an engine around an existing client
func NewEngineWithClient(client *http.Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, logger: logger, now: time.Now}
}

// BuildRequest renders every field of the recipe. The first field that fails
// aborts the build and is reported as a *FieldError.
func (e *Engine) BuildRequest(ctx context.Context, recipe *types.Recipe, rc *template.Context) (*types.Request, error) {
	method, err := template.Render(ctx, recipe.Method, rc)
	if err != nil {
		return nil, &FieldError{Field: "method", Err: err}
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if !validMethod(method) {
		return nil, &FieldError{Field: "method", Err: fmt.Errorf("%w %q", ErrInvalidMethod, method)}
	}

	url, err := template.Render(ctx, recipe.URL, rc)
	if err != nil {
		return nil, &FieldError{Field: "url", Err: err}
	}

	headers := make(http.Header, len(recipe.Headers))
	for _, rawName := range recipe.HeaderNames() {
		name, err := template.Render(ctx, rawName, rc)
		if err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("header %q", rawName), Err: err}
		}
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, &FieldError{Field: fmt.Sprintf("header %q", rawName), Err: fmt.Errorf("%w %q", ErrInvalidHeaderName, name)}
		}

		value, err := template.Render(ctx, recipe.Headers[rawName], rc)
		if err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("header %q value", rawName), Err: err}
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, &FieldError{Field: fmt.Sprintf("header %q value", rawName), Err: ErrInvalidHeaderValue}
		}
		headers.Add(name, value)
	}

	var body *string
	if recipe.Body != nil {
		rendered, err := template.Render(ctx, *recipe.Body, rc)
		if err != nil {
			return nil, &FieldError{Field: "body", Err: err}
		}
		body = &rendered
	}

	req := types.NewRequest(recipe.ID, method, url, headers, body)
	e.logger.Debug("Built request",
		zap.String("recipe", string(recipe.ID)),
		zap.String("request_id", req.ID.String()),
		zap.String("method", method),
		zap.String("url", url))
	return req, nil
}

// SendRequest executes req on a new goroutine and returns immediately. The
// outcome is written to req's result slot; the returned channel is closed
// once it has been.
//
// There is no cancellation: the request runs to completion even if nobody
// reads the result.
func (e *Engine) SendRequest(req *types.Request) <-chan struct{} {
	go func() {
		start := e.now()
		resp, err := e.execute(req)
		outcome := types.Outcome{
			Response:  resp,
			Err:       err,
			StartTime: start,
			EndTime:   e.now(),
		}
		if !req.Result().Fill(outcome) {
			e.logger.Error("Result slot already filled", zap.String("request_id", req.ID.String()))
			return
		}

		if err != nil {
			e.logger.Warn("Request failed",
				zap.String("recipe", string(req.RecipeID)),
				zap.String("request_id", req.ID.String()),
				zap.Error(err))
			return
		}
		e.logger.Info("Request completed",
			zap.String("recipe", string(req.RecipeID)),
			zap.String("request_id", req.ID.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", outcome.EndTime.Sub(outcome.StartTime)))
	}()
	return req.Done()
}

// Execute builds, sends and waits for a recipe. If ctx is done first the
// request keeps running and ctx.Err() is returned.
func (e *Engine) Execute(ctx context.Context, recipe *types.Recipe, rc *template.Context) (*types.RequestRecord, error) {
	req, err := e.BuildRequest(ctx, recipe, rc)
	if err != nil {
		return nil, err
	}

	select {
	case <-e.SendRequest(req):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	record, _ := req.Record()
	return record, nil
}

func (e *Engine) execute(req *types.Request) (*types.Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewBufferString(*req.Body)
	}

	httpReq, err := http.NewRequestWithContext(context.Background(), req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header = req.Headers.Clone()

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	response := &types.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
	}

	body, err := e.readBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	response.Body = body

	return response, nil
}

// readBody decodes the body to UTF-8 using the charset declared in the
// Content-Type. Undeclared or unknown charsets are read as UTF-8, and invalid
// sequences become U+FFFD.
func (e *Engine) readBody(r io.Reader, contentType string) (string, error) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := params["charset"]; label != "" {
			if enc, name := charset.Lookup(label); enc != nil {
				if name != "utf-8" {
					r = enc.NewDecoder().Reader(r)
				}
			} else {
				e.logger.Debug("Unknown response charset", zap.String("charset", label))
			}
		}
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), "\uFFFD"), nil
}

func validMethod(method string) bool {
	if method == "" {
		return false
	}
	for _, r := range method {
		if !httpguts.IsTokenRune(r) {
			return false
		}
	}
	return true
}
