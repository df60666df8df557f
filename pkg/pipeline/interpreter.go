package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/queryflow/pkg/adapter"
)

// AdapterInterpreter phrases the final response through a model adapter.
type AdapterInterpreter struct {
	adapter adapter.Adapter
	model   string
	policy  adapter.RetryPolicy
}

// NewAdapterInterpreter creates an interpreter bound to one adapter and model.
func NewAdapterInterpreter(a adapter.Adapter, model string) *AdapterInterpreter {
	return &AdapterInterpreter{adapter: a, model: model, policy: adapter.DefaultRetryPolicy()}
}

// Interpret turns the terminal query state into response text. Adapter
// failures fall back to the static rendering so a turn that produced an
// answer never loses it to a phrasing call.
func (i *AdapterInterpreter) Interpret(ctx context.Context, st *QueryState) (string, error) {
	static := StaticInterpreter{}
	raw, err := static.Interpret(ctx, st)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\n", st.Query)
	fmt.Fprintf(&sb, "Raw result:\n%s\n\n", raw)
	sb.WriteString("Answer the question in one or two plain sentences using the raw result. ")
	sb.WriteString("If the result indicates failure, say so and do not invent an answer.\n")

	resp, aerr := adapter.Call(ctx, i.adapter, i.model, sb.String(), i.policy)
	if aerr != nil {
		return raw, nil
	}
	return strings.TrimSpace(resp.Content), nil
}

// StaticInterpreter renders results without a model call. It is the offline
// default and the fallback when the phrasing adapter fails.
type StaticInterpreter struct {
	// Categories names the kinds of questions the deployment can answer.
	// Listed in the exhausted-retries message so the user can rephrase.
	Categories []string
}

// Interpret formats the terminal state as response text.
func (s StaticInterpreter) Interpret(_ context.Context, st *QueryState) (string, error) {
	if st.CapabilityResult != nil {
		return s.renderCapability(st), nil
	}
	if st.ExecResult != nil {
		if st.ExecResult.Success {
			out := strings.TrimSpace(st.ExecResult.Stdout)
			if out == "" {
				out = "The program completed but produced no output."
			}
			return out, nil
		}
		return s.renderExhausted(st), nil
	}
	return "No result was produced for this query.", nil
}

func (s StaticInterpreter) renderCapability(st *QueryState) string {
	res := st.CapabilityResult
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "the capability reported a failure"
		}
		return fmt.Sprintf("Could not answer the query: %s.", msg)
	}
	if len(res.Payload) == 0 {
		return "Done."
	}
	if out, ok := res.Payload["output"].(string); ok && len(res.Payload) == 1 {
		return strings.TrimSpace(out)
	}

	keys := make([]string, 0, len(res.Payload))
	for k := range res.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %v\n", k, res.Payload[k])
	}
	return strings.TrimSpace(sb.String())
}

func (s StaticInterpreter) renderExhausted(st *QueryState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I was unable to answer %q after %d attempt(s).", st.Query, st.RetryCount+1)
	if len(st.ErrorHistory) > 0 {
		fmt.Fprintf(&sb, " Last error: %s.", strings.TrimSpace(st.ErrorHistory[len(st.ErrorHistory)-1]))
	}
	if len(s.Categories) > 0 {
		sb.WriteString(" I can answer questions about: ")
		sb.WriteString(strings.Join(s.Categories, ", "))
		sb.WriteString(".")
	}
	return sb.String()
}
