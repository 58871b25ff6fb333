package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/filter"
	"github.com/studiowebux/reqflow/internal/history"
	"github.com/studiowebux/reqflow/internal/template"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrHTTPStatus is returned when a request completed with a 4xx or 5xx status
var ErrHTTPStatus = errors.New("request returned an error status")

// Env holds what every command needs
type Env struct {
	Collection *types.Collection
	Engine     *executor.Engine
	History    *history.Manager
	Logger     *zap.Logger
	Out        io.Writer
	Err        io.Writer
}

// RunOptions contains options for running a request in CLI mode
type RunOptions struct {
	RecipeID     types.RecipeID
	Profile      string
	Overrides    []string // key=value pairs from -o flag
	OutputFormat string   // json, yaml, text, body
	ShowFull     bool
	Query        string // JMESPath query
}

// ParseOverrides turns key=value pairs into a map. A bare key sets an empty value.
func ParseOverrides(pairs []string) (map[string]string, error) {
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid override %q: missing key", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// LoadEnvFile loads a dotenv file into the process environment. Variables
// that are already set keep their value.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// renderContext builds the render context for the requested profile
func (e *Env) renderContext(profileID string, overrides map[string]string) (*template.Context, error) {
	var profile *types.Profile
	if profileID != "" {
		p, ok := e.Collection.Profile(profileID)
		if !ok {
			return nil, fmt.Errorf("profile %q not found", profileID)
		}
		profile = p
	} else if len(e.Collection.Profiles) > 0 {
		profile = &e.Collection.Profiles[0]
	}
	return template.NewContext(e.Collection, profile, overrides, e.History, e.Logger), nil
}

// Run executes one recipe, stores the attempt in history and prints the response
func Run(ctx context.Context, env *Env, opts RunOptions) error {
	recipeID := opts.RecipeID
	if recipeID == "" {
		if !isInteractive() {
			return fmt.Errorf("no request id given (non-interactive mode)")
		}
		selected, err := promptForRecipe(env.Collection.Requests)
		if err != nil {
			return err
		}
		recipeID = selected
	}

	recipe, ok := env.Collection.Recipe(recipeID)
	if !ok {
		return fmt.Errorf("request %q not found", recipeID)
	}
	if opts.Query != "" && !filter.IsValidJMESPath(opts.Query) {
		return fmt.Errorf("invalid query %q", opts.Query)
	}

	overrides, err := ParseOverrides(opts.Overrides)
	if err != nil {
		return err
	}
	rc, err := env.renderContext(opts.Profile, overrides)
	if err != nil {
		return err
	}

	record, err := env.Engine.Execute(ctx, recipe, rc)
	if err != nil {
		return errors.New(executor.FormatErrorChain(err))
	}

	if err := env.History.Add(ctx, record); err != nil {
		// History is best-effort
		env.Logger.Warn("Failed to save request record", zap.Error(err))
		fmt.Fprintf(env.Err, "Warning: failed to save history: %v\n", err)
	}

	if !record.Succeeded() {
		return errors.New(executor.FormatErrorChain(record.Err))
	}

	body := record.Response.Body
	if opts.Query != "" {
		queried, err := filter.Query(body, opts.Query)
		if err != nil {
			fmt.Fprintf(env.Err, "Warning: query error: %v\n", err)
		} else {
			body = queried
		}
	}

	outputFormat := opts.OutputFormat
	if outputFormat == "" {
		if isTerminal(os.Stdout) {
			outputFormat = "text"
		} else {
			outputFormat = "body"
		}
	}

	output, err := formatOutput(record, body, outputFormat, opts.ShowFull)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(env.Out, output)

	if record.Response.StatusCode >= 400 {
		return fmt.Errorf("%w: %d", ErrHTTPStatus, record.Response.StatusCode)
	}
	return nil
}

type responseOutput struct {
	RequestID string            `json:"requestId" yaml:"requestId"`
	Status    int               `json:"status" yaml:"status"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string            `json:"body" yaml:"body"`
	Duration  string            `json:"duration" yaml:"duration"`
}

// formatOutput formats the record based on the output format
func formatOutput(record *types.RequestRecord, body string, format string, showFull bool) (string, error) {
	resp := record.Response
	headers := make(map[string]string, len(resp.Headers))
	for key, values := range resp.Headers {
		headers[key] = strings.Join(values, ", ")
	}

	out := responseOutput{
		RequestID: record.ID.String(),
		Status:    resp.StatusCode,
		Headers:   headers,
		Body:      body,
		Duration:  executor.FormatDuration(record.Duration()),
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "body":
		return body, nil

	case "text":
		var sb strings.Builder

		statusColor := getStatusColor(resp.StatusCode)
		sb.WriteString(fmt.Sprintf("%s%d %s%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), colorReset))
		sb.WriteString(fmt.Sprintf("Duration: %s | Size: %s\n",
			out.Duration,
			executor.FormatSize(len(resp.Body))))

		if showFull && len(headers) > 0 {
			keys := make([]string, 0, len(headers))
			for key := range headers {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			sb.WriteString("\nHeaders:\n")
			for _, key := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", key, headers[key]))
			}
		}

		if body != "" {
			if showFull {
				sb.WriteString("\nBody:\n")
			} else {
				sb.WriteString("\n")
			}
			sb.WriteString(filter.Pretty(body))
			sb.WriteString("\n")
		}

		return sb.String(), nil

	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func getStatusColor(status int) string {
	if executor.IsSuccessStatus(status) {
		return colorGreen
	} else if status >= 400 {
		return colorRed
	}
	return colorYellow
}


// isInteractive checks if stdin is a terminal (not piped)
func isInteractive() bool {
	return isTerminal(os.Stdin)
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
