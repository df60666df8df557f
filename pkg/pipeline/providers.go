package pipeline

import (
	"context"

	"github.com/zen-systems/queryflow/pkg/artifact"
	"github.com/zen-systems/queryflow/pkg/retrieval"
)

// Retriever supplies context documents for generation. Failures degrade to
// empty context; the orchestrator never aborts on a retrieval error.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Document, error)
}

// Planner produces instruction text ahead of generation in plan-first mode.
type Planner interface {
	Plan(ctx context.Context, st *QueryState) (string, error)
}

// Generator synthesizes a data-access program from the query state. On a
// regeneration pass the state's error history carries the failure feedback.
type Generator interface {
	GenerateProgram(ctx context.Context, st *QueryState) (*artifact.Artifact, error)
}

// Interpreter turns the terminal query state into the final response text.
type Interpreter interface {
	Interpret(ctx context.Context, st *QueryState) (string, error)
}
