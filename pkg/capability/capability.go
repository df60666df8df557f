// Package capability defines the contract for deterministic pre-built query
// handlers and the read-only registry the router selects from.
package capability

import "context"

// Result is the outcome of running a capability against a query.
type Result struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Capability is a deterministic handler that can directly answer one
// category of queries without generating new code. Implementations must be
// safe for concurrent use: the same capability may serve many queries at once.
type Capability interface {
	// Name returns the stable identifier used by resume tokens and the registry.
	Name() string

	// Description returns the natural-language description the scorer embeds.
	Description() string

	// CanHandle reports whether the capability accepts the query. Mode-forced
	// routing consults this before committing.
	CanHandle(query string) bool

	// Execute runs the capability. Failures are reported in the Result, not
	// as panics; the orchestrator treats them as terminal for the turn.
	Execute(ctx context.Context, query string) Result
}

// FuncCapability adapts plain functions into a Capability. Used by tests and
// by hosts that embed queryflow with in-process handlers.
type FuncCapability struct {
	CapName        string
	CapDescription string
	HandleFn       func(query string) bool
	ExecuteFn      func(ctx context.Context, query string) Result
}

// Name returns the capability identifier.
func (f *FuncCapability) Name() string { return f.CapName }

// Description returns the capability description.
func (f *FuncCapability) Description() string { return f.CapDescription }

// CanHandle reports whether the capability accepts the query. A nil HandleFn
// accepts everything.
func (f *FuncCapability) CanHandle(query string) bool {
	if f.HandleFn == nil {
		return true
	}
	return f.HandleFn(query)
}

// Execute invokes the wrapped function.
func (f *FuncCapability) Execute(ctx context.Context, query string) Result {
	if f.ExecuteFn == nil {
		return Result{Success: false, Error: "capability has no handler"}
	}
	return f.ExecuteFn(ctx, query)
}

// Failure builds a failed result with the given error message.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Successf builds a successful result with a single payload entry.
func Successf(key string, value any) Result {
	return Result{Success: true, Payload: map[string]any{key: value}}
}
