package template

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/studiowebux/reqflow/internal/types"
	"github.com/theory/jsonpath"
	"go.uber.org/zap"
)

// Placeholder pattern: {{ key }} with optional whitespace inside the braces.
// Keys are Unicode letters, marks, digits, underscores, dots and dashes.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([\p{L}\p{M}\p{N}_.-]+)\s*\}\}`)

// Repository is the read side of request history used by chains
type Repository interface {
	// GetLast returns the most recent record for a recipe, or nil if there is none
	GetLast(ctx context.Context, recipeID types.RecipeID) (*types.RequestRecord, error)
}

// Context holds everything a render may read. It must not be modified while
// a render is in progress.
type Context struct {
	Profile    map[string]string
	Overrides  map[string]string
	Chains     []types.Chain
	Repository Repository
	Logger     *zap.Logger
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Context) chain(id string) (*types.Chain, bool) {
	for i := range c.Chains {
		if c.Chains[i].ID == id {
			return &c.Chains[i], true
		}
	}
	return nil, false
}

// Render resolves every placeholder in tmpl. Failures are returned as *Error.
func Render(ctx context.Context, tmpl string, rc *Context) (string, error) {
	out, err := RenderBorrow(ctx, tmpl, rc)
	if err != nil {
		var borrowed *BorrowedError
		if errors.As(err, &borrowed) {
			return "", borrowed.IntoOwned()
		}
		return "", err
	}
	return out, nil
}

// RenderBorrow is Render with the error left in borrowed form. Failures are
// returned as *BorrowedError whose Span points into tmpl.
//
// Placeholders are resolved one at a time, left to right. A key that occurs
// more than once is resolved again at each occurrence.
func RenderBorrow(ctx context.Context, tmpl string, rc *Context) (string, error) {
	if rc == nil {
		rc = &Context{}
	}

	matches := placeholderPattern.FindAllStringSubmatchIndex(tmpl, -1)
	if len(matches) == 0 {
		return tmpl, nil
	}

	var sb strings.Builder
	sb.Grow(len(tmpl))
	last := 0
	for _, m := range matches {
		span := Span{Start: m[0], End: m[1]}
		raw := tmpl[m[2]:m[3]]

		value, err := resolve(ctx, raw, rc)
		if err != nil {
			err.Span = span
			err.Key = raw
			return "", err
		}

		sb.WriteString(tmpl[last:span.Start])
		sb.WriteString(value)
		last = span.End
	}
	sb.WriteString(tmpl[last:])

	return sb.String(), nil
}

func resolve(ctx context.Context, raw string, rc *Context) (string, *BorrowedError) {
	key, ok := ParseKey(raw)
	if !ok {
		return "", &BorrowedError{Kind: KindInvalidKey}
	}

	var (
		value string
		err   *BorrowedError
	)
	switch k := key.(type) {
	case FieldKey:
		value, err = resolveField(k, rc)
	case ChainKey:
		value, err = resolveChain(ctx, k, rc)
	case EnvironmentKey:
		value, err = resolveEnvironment(k)
	default:
		panic(fmt.Sprintf("unhandled template key %T", key))
	}
	if err != nil {
		return "", err
	}

	rc.logger().Debug("Resolved template key", zap.String("key", raw))
	return value, nil
}

func resolveField(key FieldKey, rc *Context) (string, *BorrowedError) {
	if value, ok := rc.Overrides[key.Name]; ok {
		return value, nil
	}
	if value, ok := rc.Profile[key.Name]; ok {
		return value, nil
	}
	return "", &BorrowedError{Kind: KindFieldUnknown, Ident: key.Name}
}

func resolveChain(ctx context.Context, key ChainKey, rc *Context) (string, *BorrowedError) {
	chain, ok := rc.chain(key.ID)
	if !ok {
		return "", &BorrowedError{Kind: KindChainUnknown, Ident: key.ID}
	}
	if rc.Repository == nil {
		return "", &BorrowedError{Kind: KindChainNoResponse, Ident: key.ID}
	}

	record, err := rc.Repository.GetLast(ctx, chain.Source)
	if err != nil {
		return "", &BorrowedError{Kind: KindRepository, Ident: key.ID, Err: err}
	}
	if record == nil || !record.Succeeded() {
		return "", &BorrowedError{Kind: KindChainNoResponse, Ident: key.ID}
	}

	if chain.Path == nil {
		return record.Response.Body, nil
	}

	path, err := jsonpath.Parse(*chain.Path)
	if err != nil {
		return "", &BorrowedError{Kind: KindChainJSONPath, Ident: key.ID, Path: *chain.Path, Err: err}
	}

	parsed, err := record.Response.ParseBody()
	if err != nil {
		return "", &BorrowedError{Kind: KindChainParseResponse, Ident: key.ID, Err: err}
	}
	value, err := parsed.JSON()
	if err != nil {
		return "", &BorrowedError{Kind: KindChainIncorrectContentType, Ident: key.ID, Err: err}
	}

	nodes := path.Select(value)
	if len(nodes) != 1 {
		return "", &BorrowedError{
			Kind:  KindChainInvalidResult,
			Ident: key.ID,
			Err:   &ExactlyOneError{Count: len(nodes)},
		}
	}

	out, err := stringifyNode(nodes[0])
	if err != nil {
		return "", &BorrowedError{Kind: KindChainInvalidResult, Ident: key.ID, Err: err}
	}
	return out, nil
}

// stringifyNode renders strings unquoted and every other value as compact JSON
func stringifyNode(node any) (string, error) {
	if s, ok := node.(string); ok {
		return s, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("failed to encode JSON value: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func resolveEnvironment(key EnvironmentKey) (string, *BorrowedError) {
	value, ok := os.LookupEnv(key.Name)
	if !ok {
		return "", &BorrowedError{Kind: KindEnvironmentVariable, Ident: key.Name, Err: ErrEnvNotPresent}
	}
	if !utf8.ValidString(value) {
		return "", &BorrowedError{Kind: KindEnvironmentVariable, Ident: key.Name, Err: ErrEnvNotUnicode}
	}
	return value, nil
}

// NewContext assembles a render context from a collection. profile may be nil.
func NewContext(collection *types.Collection, profile *types.Profile, overrides map[string]string, repo Repository, logger *zap.Logger) *Context {
	rc := &Context{
		Overrides:  overrides,
		Repository: repo,
		Logger:     logger,
	}
	if collection != nil {
		rc.Chains = collection.Chains
	}
	if profile != nil {
		rc.Profile = profile.Data
	}
	return rc
}
