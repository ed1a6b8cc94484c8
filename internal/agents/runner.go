package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/PromptBench/internal/models"
)

// Analyst is a callable analyst: state in, state (with report) out. The
// evaluator works against this type so prompt versions can be swapped freely.
type Analyst func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error)

// CompileAnalyst compiles an analyst graph into a plain Analyst func.
func CompileAnalyst(ctx context.Context, name string, g *compose.Graph[*models.AnalysisState, *models.AnalysisState]) (Analyst, error) {
	runnable, err := g.Compile(ctx,
		compose.WithGraphName(name),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile analyst graph %s: %w", name, err)
	}

	return func(ctx context.Context, state *models.AnalysisState) (*models.AnalysisState, error) {
		return runnable.Invoke(ctx, state)
	}, nil
}
