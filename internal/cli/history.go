package cli

import (
	"context"
	"fmt"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/types"
)

// HistoryOptions selects which stored records to list
type HistoryOptions struct {
	RecipeID types.RecipeID
	Limit    int
	Clear    bool
}

// History lists stored attempts for a recipe, newest first
func History(ctx context.Context, env *Env, opts HistoryOptions) error {
	if opts.Clear {
		if err := env.History.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "History cleared")
		return nil
	}

	if opts.RecipeID == "" {
		count, err := env.History.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%d stored requests\n", count)
		return nil
	}

	if _, ok := env.Collection.Recipe(opts.RecipeID); !ok {
		return fmt.Errorf("request %q not found", opts.RecipeID)
	}

	records, err := env.History.Load(ctx, opts.RecipeID, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(env.Out, "No history for %s\n", opts.RecipeID)
		return nil
	}

	for _, r := range records {
		fmt.Fprintln(env.Out, formatHistoryLine(r))
	}
	return nil
}

func formatHistoryLine(r *types.RequestRecord) string {
	ts := r.StartTime.Local().Format("2006-01-02 15:04:05")
	duration := executor.FormatDuration(r.Duration())

	var method, url string
	if r.Request != nil {
		method, url = r.Request.Method, r.Request.URL
	}

	if !r.Succeeded() {
		return fmt.Sprintf("%s  %s✗ ERR%s  %7s  %s %s  %v", ts, colorRed, colorReset, duration, method, url, r.Err)
	}
	status := r.Response.StatusCode
	return fmt.Sprintf("%s  %s%d%s      %7s  %s %s", ts, getStatusColor(status), status, colorReset, duration, method, url)
}
