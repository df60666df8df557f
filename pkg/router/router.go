// Package router decides whether a query is answered by a pre-built
// capability, escalated to the user for disambiguation, or handed to the
// generate-execute pipeline.
package router

import (
	"context"
	"fmt"
	"log"

	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/disambig"
	"github.com/zen-systems/queryflow/pkg/scoring"
)

// Thresholds holds the scoring policy. The defaults are empirically tuned
// for the shipped embedding backends; they are configuration, not law.
type Thresholds struct {
	// Include is the similarity floor for a capability to be considered.
	Include float64

	// Exec is the floor the top candidate must clear to run directly.
	Exec float64

	// Gap is the minimum winner-to-runner-up margin below which routing
	// escalates to disambiguation instead of guessing.
	Gap float64

	// TopN caps how many candidates semantic ranking keeps.
	TopN int
}

// DefaultThresholds returns the default scoring policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Include: 0.4, Exec: 0.4, Gap: 0.1, TopN: 3}
}

// Request is one routing request. ForcedCapability is set when the caller's
// execution mode mandates a specific capability (e.g. comparison mode).
type Request struct {
	Query            string
	ForcedCapability string
}

// ModeError is the hard failure returned when a mode-forced capability is
// missing or refuses the query. It is deliberately not a NoMatch: the mode
// made the choice, so falling through to the pipeline would be wrong.
type ModeError struct {
	Capability string
	Reason     string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("mode requires capability %s: %s", e.Capability, e.Reason)
}

// Router is a pure decision engine over a read-only registry. It never
// mutates capability state; the same (query, registry, thresholds, resume
// context) always yields the same decision.
type Router struct {
	registry   *capability.Registry
	scorer     *scoring.Scorer
	resolver   *disambig.Resolver
	codec      *disambig.Codec
	thresholds Thresholds
	debug      bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithThresholds overrides the default scoring policy.
func WithThresholds(t Thresholds) RouterOption {
	return func(r *Router) {
		if t.TopN <= 0 {
			t.TopN = 3
		}
		r.thresholds = t
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) RouterOption {
	return func(r *Router) {
		r.debug = debug
	}
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *capability.Registry, scorer *scoring.Scorer, resolver *disambig.Resolver, codec *disambig.Codec, opts ...RouterOption) *Router {
	r := &Router{
		registry:   registry,
		scorer:     scorer,
		resolver:   resolver,
		codec:      codec,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decide runs a single routing pass and returns its terminal decision.
// The only error case is a mode-forced failure (*ModeError).
func (r *Router) Decide(ctx context.Context, req Request) (*Decision, error) {
	query := req.Query

	// Resume check: a valid token bypasses scoring entirely.
	if token, ok := r.codec.Decode(query); ok {
		if entry, exists := r.registry.Get(token.Capability); exists {
			return &Decision{
				Kind:           KindExecute,
				Capability:     entry.Capability,
				EffectiveQuery: token.Query,
				Resumed:        true,
				Reasons:        []string{fmt.Sprintf("resumed %s token for %s", token.Kind, token.Capability)},
			}, nil
		}
		// Named capability left the registry: route the decoded original
		// query as a fresh one.
		query = token.Query
		if r.debug {
			log.Printf("[router] resume token names unknown capability %s; rerouting %q", token.Capability, query)
		}
	}

	// Keyword override: unambiguous domain triggers skip embedding noise.
	for _, entry := range r.registry.Entries() {
		if keyword, ok := matchKeyword(query, entry.Keywords); ok {
			return &Decision{
				Kind:           KindExecute,
				Capability:     entry.Capability,
				EffectiveQuery: query,
				KeywordMatch:   keyword,
				Reasons:        []string{fmt.Sprintf("keyword %q matched %s", keyword, entry.Capability.Name())},
			}, nil
		}
	}

	// Mode-forced override.
	if req.ForcedCapability != "" {
		entry, ok := r.registry.Get(req.ForcedCapability)
		if !ok {
			return nil, &ModeError{Capability: req.ForcedCapability, Reason: "not registered"}
		}
		if !entry.Capability.CanHandle(query) {
			return nil, &ModeError{Capability: req.ForcedCapability, Reason: "capability cannot handle this query"}
		}
		return &Decision{
			Kind:           KindExecute,
			Capability:     entry.Capability,
			EffectiveQuery: query,
			ModeForced:     true,
			Reasons:        []string{fmt.Sprintf("mode forced %s", req.ForcedCapability)},
		}, nil
	}

	return r.rank(ctx, query), nil
}

// rank performs semantic ranking and applies the threshold policy.
func (r *Router) rank(ctx context.Context, query string) *Decision {
	scores, scoreErrs := r.scorer.ScoreAll(ctx, query, r.registry.Capabilities())

	var reasons []string
	for _, serr := range scoreErrs {
		reasons = append(reasons, serr.Error())
	}

	candidates := make([]scoring.Score, 0, r.thresholds.TopN)
	for _, score := range scores {
		if score.Value < r.thresholds.Include {
			break
		}
		candidates = append(candidates, score)
		if len(candidates) == r.thresholds.TopN {
			break
		}
	}

	if len(candidates) == 0 {
		return &Decision{
			Kind:    KindNoMatch,
			Scores:  scores,
			Reasons: append(reasons, fmt.Sprintf("no capability scored >= %.2f", r.thresholds.Include)),
		}
	}

	top := candidates[0]
	if top.Value < r.thresholds.Exec {
		return &Decision{
			Kind:    KindNoMatch,
			Scores:  scores,
			Reasons: append(reasons, fmt.Sprintf("top score %.2f below execution floor %.2f", top.Value, r.thresholds.Exec)),
		}
	}

	gap := top.Value
	if len(candidates) > 1 {
		gap = top.Value - candidates[1].Value
	}

	if len(candidates) > 1 && gap < r.thresholds.Gap {
		payload := r.resolver.Build(query, candidates)
		return &Decision{
			Kind:           KindDisambiguate,
			Disambiguation: &payload,
			Scores:         scores,
			Reasons:        append(reasons, fmt.Sprintf("ambiguous: gap %.2f below %.2f", gap, r.thresholds.Gap)),
		}
	}

	if r.debug {
		log.Printf("[router] %s wins with %.2f (gap %.2f)", top.Capability.Name(), top.Value, gap)
	}

	return &Decision{
		Kind:           KindExecute,
		Capability:     top.Capability,
		EffectiveQuery: query,
		Scores:         scores,
		Reasons:        append(reasons, fmt.Sprintf("top score %.2f with gap %.2f", top.Value, gap)),
	}
}
