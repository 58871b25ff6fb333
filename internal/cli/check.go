package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/studiowebux/reqflow/internal/executor"
	"github.com/studiowebux/reqflow/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CheckOptions controls a dry render of the collection
type CheckOptions struct {
	Profile   string
	Overrides []string
}

// CheckResult is the outcome of building one recipe without sending it
type CheckResult struct {
	RecipeID types.RecipeID
	Request  *types.Request
	Err      error
}

// CheckCollection builds every recipe in the collection without sending
// anything. Chains read whatever history already holds.
func CheckCollection(ctx context.Context, env *Env, opts CheckOptions) ([]CheckResult, error) {
	overrides, err := ParseOverrides(opts.Overrides)
	if err != nil {
		return nil, err
	}
	rc, err := env.renderContext(opts.Profile, overrides)
	if err != nil {
		return nil, err
	}

	recipes := env.Collection.Requests
	results := make([]CheckResult, len(recipes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range recipes {
		recipe := &recipes[i]
		g.Go(func() error {
			req, err := env.Engine.BuildRequest(gctx, recipe, rc)
			results[i] = CheckResult{RecipeID: recipe.ID, Request: req, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	env.Logger.Info("Checked collection",
		zap.Int("requests", len(results)),
		zap.Int("failed", failed))

	return results, nil
}

// Check runs CheckCollection and prints one line per recipe. It returns an
// error when any recipe failed to build.
func Check(ctx context.Context, env *Env, opts CheckOptions) error {
	results, err := CheckCollection(ctx, env, opts)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(env.Out, "%s✓%s %s  %s %s\n", colorGreen, colorReset, r.RecipeID, r.Request.Method, r.Request.URL)
			continue
		}
		failed++
		fmt.Fprintf(env.Out, "%s✗%s %s\n", colorRed, colorReset, r.RecipeID)
		for _, line := range strings.Split(executor.FormatErrorChain(r.Err), "\n") {
			fmt.Fprintf(env.Out, "    %s\n", line)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed to build", failed, len(results))
	}
	return nil
}
