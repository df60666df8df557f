// Package pipeline orchestrates the generate-execute-retry flow for queries
// no capability answers directly.
package pipeline

import (
	"github.com/zen-systems/queryflow/pkg/artifact"
	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/exec"
	"github.com/zen-systems/queryflow/pkg/retrieval"
	"github.com/zen-systems/queryflow/pkg/router"
)

// State is one stage of the query state machine. A query occupies exactly
// one state at a time; Generating-Executing-RetryCheck is the only cycle.
type State int

const (
	StateRouting State = iota
	StateRetrieving
	StatePlanning
	StateGenerating
	StateExecuting
	StateRetryCheck
	StateInterpreting
	StateAwaitingUser
	StateDone
)

// String returns the stage name used in events and logs.
func (s State) String() string {
	switch s {
	case StateRouting:
		return "routing"
	case StateRetrieving:
		return "retrieving"
	case StatePlanning:
		return "planning"
	case StateGenerating:
		return "generating"
	case StateExecuting:
		return "executing"
	case StateRetryCheck:
		return "retry_check"
	case StateInterpreting:
		return "interpreting"
	case StateAwaitingUser:
		return "awaiting_user"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the turn.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAwaitingUser
}

// QueryState is the mutable record threaded through one query. It has a
// single owner: only the orchestrator and the stage it is currently
// delegating to may touch it, and it is never shared across queries.
type QueryState struct {
	Query       string
	TargetPaths []string
	State       State

	RetrievedContext []retrieval.Document
	Plan             string
	Artifact         *artifact.Artifact
	ExecResult       *exec.Result

	RetryCount   int
	MaxRetries   int
	ErrorHistory []string

	Decision         *router.Decision
	CapabilityResult *capability.Result

	FinalResponse string
}

// newQueryState creates the state record for one query.
func newQueryState(query string, targetPaths []string, maxRetries int) *QueryState {
	return &QueryState{
		Query:       query,
		TargetPaths: targetPaths,
		State:       StateRouting,
		MaxRetries:  maxRetries,
	}
}
