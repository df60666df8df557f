package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/disambig"
	"github.com/zen-systems/queryflow/pkg/exec"
	"github.com/zen-systems/queryflow/pkg/multitarget"
	"github.com/zen-systems/queryflow/pkg/router"
)

// Mode selects how the orchestrator sequences a routed-to-pipeline query.
type Mode int

const (
	// ModeCapabilityFirst goes straight from retrieval to generation.
	ModeCapabilityFirst Mode = iota
	// ModePlanFirst inserts a planning pass between retrieval and generation.
	ModePlanFirst
)

// Config holds the orchestrator's tunables.
type Config struct {
	Mode       Mode
	MaxRetries int
	// RetrievalK caps context documents for generation, PlanRetrievalK for
	// planning. Zero means the retriever's default.
	RetrievalK     int
	PlanRetrievalK int
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{Mode: ModeCapabilityFirst, MaxRetries: 3, RetrievalK: 5, PlanRetrievalK: 3}
}

// Outcome is the result of one orchestrated query.
type Outcome struct {
	// Response is the final text, empty when the turn ended awaiting user
	// input.
	Response string
	// Disambiguation is set when the turn paused for a user choice.
	Disambiguation *disambig.Payload
	FinalState     State
	// QueryState exposes the full turn record for auditing.
	QueryState *QueryState
}

// Decider disposes of a query: execute, disambiguate, or no match.
// *router.Router is the production implementation.
type Decider interface {
	Decide(ctx context.Context, req router.Request) (*router.Decision, error)
}

// Orchestrator drives queries through the state machine: route, then either
// execute a capability directly or run the retrieve-generate-execute-retry
// pipeline, then interpret.
type Orchestrator struct {
	router      Decider
	retriever   Retriever
	planner     Planner
	generator   Generator
	runner      exec.Runner
	interpreter Interpreter
	controller  *Controller
	multi       *multitarget.Executor
	sink        EventSink
	config      Config
	debug       bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPlanner enables plan-first sequencing with the given planner.
func WithPlanner(p Planner) OrchestratorOption {
	return func(o *Orchestrator) {
		o.planner = p
	}
}

// WithEventSink sets the progress event sink.
func WithEventSink(sink EventSink) OrchestratorOption {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithMultiTarget sets the executor used when a query names several targets.
func WithMultiTarget(m *multitarget.Executor) OrchestratorOption {
	return func(o *Orchestrator) {
		o.multi = m
	}
}

// WithOrchestratorDebug enables stage logging.
func WithOrchestratorDebug(debug bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.debug = debug
	}
}

// NewOrchestrator wires the pipeline. The retriever, generator, runner and
// interpreter are required; the planner is only consulted in plan-first mode.
func NewOrchestrator(rt Decider, retriever Retriever, generator Generator, runner exec.Runner, interpreter Interpreter, config Config, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		router:      rt,
		retriever:   retriever,
		generator:   generator,
		runner:      runner,
		interpreter: interpreter,
		controller:  NewController(config.MaxRetries),
		multi:       multitarget.NewExecutor(),
		sink:        NopSink{},
		config:      config,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Query is one request into the orchestrator.
type Query struct {
	Text        string
	TargetPaths []string
	// ForcedCapability restricts routing to the named capability.
	ForcedCapability string
	// Sink receives this run's events in addition to the orchestrator's
	// own sink, e.g. an audit trail scoped to one run.
	Sink EventSink
}

// Run drives one query to a terminal state. Routing mode errors and
// cancellation are returned as errors; every other failure degrades inside
// the state machine and surfaces through the interpreted response.
func (o *Orchestrator) Run(ctx context.Context, q Query) (*Outcome, error) {
	st := newQueryState(q.Text, q.TargetPaths, o.config.MaxRetries)
	sink := o.sink
	if q.Sink != nil {
		sink = fanoutSink{o.sink, q.Sink}
	}

	for !st.State.Terminal() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := o.step(ctx, st, q)
		if err != nil {
			return nil, err
		}
		o.transition(st, next, sink)
	}

	out := &Outcome{
		Response:   st.FinalResponse,
		FinalState: st.State,
		QueryState: st,
	}
	if st.State == StateAwaitingUser && st.Decision != nil {
		out.Disambiguation = st.Decision.Disambiguation
	}
	return out, nil
}

func (o *Orchestrator) step(ctx context.Context, st *QueryState, q Query) (State, error) {
	switch st.State {
	case StateRouting:
		return o.route(ctx, st, q)
	case StateRetrieving:
		return o.retrieve(ctx, st)
	case StatePlanning:
		return o.plan(ctx, st)
	case StateGenerating:
		return o.generate(ctx, st)
	case StateExecuting:
		return o.execute(ctx, st)
	case StateRetryCheck:
		return o.retryCheck(st), nil
	case StateInterpreting:
		return o.interpret(ctx, st)
	default:
		return StateDone, fmt.Errorf("pipeline: no step for state %s", st.State)
	}
}

func (o *Orchestrator) route(ctx context.Context, st *QueryState, q Query) (State, error) {
	decision, err := o.router.Decide(ctx, router.Request{Query: q.Text, ForcedCapability: q.ForcedCapability})
	if err != nil {
		return StateDone, err
	}
	st.Decision = decision
	if decision.EffectiveQuery != "" {
		st.Query = decision.EffectiveQuery
	}

	switch decision.Kind {
	case router.KindExecute:
		res := o.runCapability(ctx, st, decision.Capability)
		st.CapabilityResult = &res
		return StateInterpreting, nil
	case router.KindDisambiguate:
		return StateAwaitingUser, nil
	default:
		return StateRetrieving, nil
	}
}

// runCapability executes the routed capability, fanning out over the
// multi-target executor when the query names more than one target.
func (o *Orchestrator) runCapability(ctx context.Context, st *QueryState, cap capability.Capability) capability.Result {
	if len(st.TargetPaths) <= 1 {
		if len(st.TargetPaths) == 1 {
			ctx = capability.WithTarget(ctx, st.TargetPaths[0])
		}
		return cap.Execute(ctx, st.Query)
	}

	targets := make([]multitarget.Target, len(st.TargetPaths))
	for i, p := range st.TargetPaths {
		targets[i] = multitarget.Target{Name: filepath.Base(p), Path: p}
	}
	agg, err := o.multi.ExecuteAcrossTargets(ctx, cap, targets, st.Query)
	if err != nil {
		return capability.Failure(err.Error())
	}
	return aggregateToResult(agg)
}

// aggregateToResult flattens per-target outcomes into one capability result.
func aggregateToResult(agg *multitarget.AggregatedResult) capability.Result {
	payload := map[string]any{"targets": agg.Results}
	if !agg.Success {
		return capability.Result{Success: false, Payload: payload, Error: "all targets failed"}
	}
	return capability.Result{Success: true, Payload: payload}
}

func (o *Orchestrator) retrieve(ctx context.Context, st *QueryState) (State, error) {
	docs, err := o.retriever.Search(ctx, st.Query, o.config.RetrievalK)
	if err != nil {
		// Degrade to empty context rather than failing the turn.
		if o.debug {
			log.Printf("[pipeline] retrieval failed: %v", err)
		}
		docs = nil
	}
	st.RetrievedContext = docs

	if o.config.Mode == ModePlanFirst && o.planner != nil {
		return StatePlanning, nil
	}
	return StateGenerating, nil
}

func (o *Orchestrator) plan(ctx context.Context, st *QueryState) (State, error) {
	plan, err := o.planner.Plan(ctx, st)
	if err != nil {
		// A missing plan degrades to direct generation.
		if o.debug {
			log.Printf("[pipeline] planning failed: %v", err)
		}
		return StateGenerating, nil
	}
	st.Plan = plan
	return StateGenerating, nil
}

func (o *Orchestrator) generate(ctx context.Context, st *QueryState) (State, error) {
	program, err := o.generator.GenerateProgram(ctx, st)
	if err != nil {
		if ctx.Err() != nil {
			return StateDone, ctx.Err()
		}
		// A failed generation counts as a failed attempt so the retry bound
		// still holds.
		if o.debug {
			log.Printf("[pipeline] generation failed: %v", err)
		}
		st.ExecResult = &exec.Result{Success: false, ExitCode: -1, Stderr: fmt.Sprintf("program generation failed: %v", err)}
		return StateRetryCheck, nil
	}
	st.Artifact = program
	return StateExecuting, nil
}

func (o *Orchestrator) execute(ctx context.Context, st *QueryState) (State, error) {
	result, err := o.runner.Run(ctx, st.Artifact, st.TargetPaths)
	if err != nil {
		if ctx.Err() != nil {
			return StateDone, ctx.Err()
		}
		result = &exec.Result{Success: false, ExitCode: -1, Stderr: err.Error()}
	}
	st.ExecResult = result
	return StateRetryCheck, nil
}

func (o *Orchestrator) retryCheck(st *QueryState) State {
	if o.controller.ShouldRetry(st.ExecResult, st.RetryCount) {
		o.controller.RecordFailure(st, st.ExecResult)
		return StateGenerating
	}
	return StateInterpreting
}

func (o *Orchestrator) interpret(ctx context.Context, st *QueryState) (State, error) {
	if err := ctx.Err(); err != nil {
		return StateDone, err
	}
	response, err := o.interpreter.Interpret(ctx, st)
	if err != nil {
		return StateDone, fmt.Errorf("interpret: %w", err)
	}
	st.FinalResponse = response
	return StateDone, nil
}

// transition moves the state machine and emits the progress event. A
// panicking sink never corrupts pipeline state.
func (o *Orchestrator) transition(st *QueryState, next State, sink EventSink) {
	st.State = next
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[pipeline] event sink panicked: %v", r)
		}
	}()
	sink.Emit(Event{
		Stage:      next.String(),
		State:      next,
		RetryCount: st.RetryCount,
		Payload:    eventPayload(st, next),
	})
}

// eventPayload picks the stage's salient datum for the event stream.
func eventPayload(st *QueryState, next State) map[string]any {
	switch next {
	case StateRetrieving, StateAwaitingUser:
		if st.Decision != nil {
			return map[string]any{"decision": st.Decision.Kind.String()}
		}
	case StateExecuting:
		if st.Artifact != nil {
			return map[string]any{"artifact_version": st.Artifact.Version}
		}
	case StateRetryCheck:
		if st.ExecResult != nil {
			return map[string]any{"exit_code": st.ExecResult.ExitCode, "success": st.ExecResult.Success}
		}
	case StateInterpreting:
		if st.ExecResult != nil {
			return map[string]any{"success": st.ExecResult.Success}
		}
		if st.CapabilityResult != nil {
			return map[string]any{"success": st.CapabilityResult.Success}
		}
	}
	return nil
}

// fanoutSink emits to every sink in order.
type fanoutSink []EventSink

func (f fanoutSink) Emit(event Event) {
	for _, s := range f {
		s.Emit(event)
	}
}
