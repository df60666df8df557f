package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/queryflow/pkg/adapter"
	"github.com/zen-systems/queryflow/pkg/artifact"
	"github.com/zen-systems/queryflow/pkg/repair"
)

// AdapterGenerator produces programs through a model adapter. The first pass
// builds a prompt from the query and retrieved context; regeneration passes
// feed the accumulated error history back through a repair prompt.
type AdapterGenerator struct {
	adapter  adapter.Adapter
	model    string
	language string
	policy   adapter.RetryPolicy
}

// GeneratorOption customizes an AdapterGenerator.
type GeneratorOption func(*AdapterGenerator)

// WithLanguage sets the program language requested from the model.
func WithLanguage(language string) GeneratorOption {
	return func(g *AdapterGenerator) {
		g.language = language
	}
}

// WithGeneratorRetryPolicy overrides the transient-retry policy.
func WithGeneratorRetryPolicy(policy adapter.RetryPolicy) GeneratorOption {
	return func(g *AdapterGenerator) {
		g.policy = policy
	}
}

// NewAdapterGenerator creates a generator bound to one adapter and model.
func NewAdapterGenerator(a adapter.Adapter, model string, opts ...GeneratorOption) *AdapterGenerator {
	g := &AdapterGenerator{
		adapter:  a,
		model:    model,
		language: "python",
		policy:   adapter.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateProgram synthesizes a program for the query state. When the state
// carries an artifact and error history this is a regeneration pass: the
// new artifact keeps the original's identity with a bumped version.
func (g *AdapterGenerator) GenerateProgram(ctx context.Context, st *QueryState) (*artifact.Artifact, error) {
	if st.Artifact != nil && len(st.ErrorHistory) > 0 {
		return g.regenerate(ctx, st)
	}

	prompt := g.buildPrompt(st)
	resp, err := adapter.Call(ctx, g.adapter, g.model, prompt, g.policy)
	if err != nil {
		return nil, fmt.Errorf("generate program: %w", err)
	}
	content := stripCodeFence(resp.Content)
	return artifact.New(content, g.language, g.adapter.Name(), g.model, prompt), nil
}

func (g *AdapterGenerator) regenerate(ctx context.Context, st *QueryState) (*artifact.Artifact, error) {
	var prompt string
	if st.RetryCount >= st.MaxRetries {
		prompt = repair.GenerateEscalationPrompt(st.Artifact, st.ErrorHistory)
	} else {
		prompt = repair.GenerateRetryPrompt(st.Artifact, st.ErrorHistory)
	}

	resp, err := adapter.Call(ctx, g.adapter, g.model, prompt, g.policy)
	if err != nil {
		return nil, fmt.Errorf("regenerate program: %w", err)
	}
	content := stripCodeFence(resp.Content)
	return st.Artifact.Regenerated(content, prompt), nil
}

func (g *AdapterGenerator) buildPrompt(st *QueryState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s program that answers the question below.\n\n", g.language)
	fmt.Fprintf(&sb, "Question: %s\n\n", st.Query)

	if st.Plan != "" {
		fmt.Fprintf(&sb, "Follow this plan:\n%s\n\n", st.Plan)
	}

	if len(st.TargetPaths) > 0 {
		sb.WriteString("The program receives these file paths as arguments:\n")
		for _, p := range st.TargetPaths {
			fmt.Fprintf(&sb, "  %s\n", p)
		}
		sb.WriteString("\n")
	}

	if len(st.RetrievedContext) > 0 {
		sb.WriteString("Reference material:\n")
		for _, doc := range st.RetrievedContext {
			fmt.Fprintf(&sb, "--- %s ---\n%s\n", doc.Path, doc.Content)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Print the answer to stdout. Exit non-zero on failure.\n")
	sb.WriteString("Return ONLY the program code, no commentary.\n")
	return sb.String()
}

// stripCodeFence removes a surrounding markdown code fence if the model
// returned one despite instructions.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// AdapterPlanner asks a model for step-by-step instructions ahead of
// generation.
type AdapterPlanner struct {
	adapter adapter.Adapter
	model   string
	policy  adapter.RetryPolicy
}

// NewAdapterPlanner creates a planner bound to one adapter and model.
func NewAdapterPlanner(a adapter.Adapter, model string) *AdapterPlanner {
	return &AdapterPlanner{adapter: a, model: model, policy: adapter.DefaultRetryPolicy()}
}

// Plan returns instruction text for the generator.
func (p *AdapterPlanner) Plan(ctx context.Context, st *QueryState) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Outline the steps a program must take to answer: %s\n\n", st.Query)
	if len(st.RetrievedContext) > 0 {
		sb.WriteString("Available material:\n")
		for _, doc := range st.RetrievedContext {
			fmt.Fprintf(&sb, "--- %s ---\n%s\n", doc.Path, doc.Content)
		}
	}
	sb.WriteString("\nRespond with a short numbered plan, nothing else.\n")

	resp, err := adapter.Call(ctx, p.adapter, p.model, sb.String(), p.policy)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
