package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/studiowebux/reqflow/internal/filter"
	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
)

const (
	highlightFormatter = "terminal256"
	highlightStyle     = "monokai"
)

// highlightTemplate renders tmpl. On failure it returns tmpl with the
// failing placeholder marked and the error on the next line.
func highlightTemplate(ctx context.Context, tmpl string, rc *template.Context) (string, bool) {
	rendered, err := template.RenderBorrow(ctx, tmpl, rc)
	if err == nil {
		return rendered, false
	}

	var borrowed *template.BorrowedError
	if !errors.As(err, &borrowed) {
		return styleError.Render(err.Error()), true
	}

	var sb strings.Builder
	sb.WriteString(tmpl[:borrowed.Span.Start])
	sb.WriteString(stylePlaceholderError.Render(tmpl[borrowed.Span.Start:borrowed.Span.End]))
	sb.WriteString(tmpl[borrowed.Span.End:])
	sb.WriteString("\n")
	sb.WriteString(styleError.Render(borrowed.Error()))
	return sb.String(), true
}

// highlightBody pretty-prints and colors a JSON body. Other bodies are
// returned as they are.
func highlightBody(resp *types.Response) string {
	if resp.ContentType() != types.ContentTypeJSON {
		return resp.Body
	}

	pretty := filter.Pretty(resp.Body)
	var sb strings.Builder
	if err := quick.Highlight(&sb, pretty, "json", highlightFormatter, highlightStyle); err != nil {
		return pretty
	}
	return sb.String()
}
