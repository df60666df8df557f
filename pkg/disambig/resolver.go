package disambig

import (
	"strings"

	"github.com/zen-systems/queryflow/pkg/scoring"
)

// Option is one choice in a disambiguation follow-up.
type Option struct {
	Label          string `json:"label"`
	CapabilityName string `json:"capability"`
	ResumeToken    string `json:"resume_token"`
	OriginalQuery  string `json:"original_query"`
}

// Payload is the multiple-choice follow-up presented instead of an answer
// when no capability is clearly best. OriginalQuery is carried for audit;
// each option's resume token alone is sufficient to resume the turn.
type Payload struct {
	Question      string   `json:"question"`
	Options       []Option `json:"options"`
	OriginalQuery string   `json:"original_query"`
}

// Resolver builds disambiguation payloads from near-tied candidates.
type Resolver struct {
	codec      *Codec
	labels     map[string]string
	maxOptions int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLabels sets the capability-name-to-label table.
func WithLabels(labels map[string]string) ResolverOption {
	return func(r *Resolver) {
		r.labels = labels
	}
}

// WithMaxOptions caps the number of options in a payload.
func WithMaxOptions(max int) ResolverOption {
	return func(r *Resolver) {
		if max > 0 {
			r.maxOptions = max
		}
	}
}

// NewResolver creates a resolver using the given token codec.
func NewResolver(codec *Codec, opts ...ResolverOption) *Resolver {
	r := &Resolver{codec: codec, maxOptions: 3}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build produces the follow-up for a query and its candidate scores. The
// candidates are assumed to be sorted by descending score already.
func (r *Resolver) Build(query string, candidates []scoring.Score) Payload {
	payload := Payload{
		Question:      "Your question could be answered in more than one way. Which did you mean?",
		OriginalQuery: query,
	}

	for _, candidate := range candidates {
		if len(payload.Options) >= r.maxOptions {
			break
		}
		name := candidate.Capability.Name()
		payload.Options = append(payload.Options, Option{
			Label:          r.label(name),
			CapabilityName: name,
			OriginalQuery:  query,
			ResumeToken: r.codec.Encode(Token{
				Kind:       KindDisambiguation,
				Capability: name,
				Query:      query,
			}),
		})
	}

	return payload
}

// label resolves a human-readable label, falling back to the capability
// name with underscores spaced out.
func (r *Resolver) label(capabilityName string) string {
	if label, ok := r.labels[capabilityName]; ok {
		return label
	}
	return strings.ReplaceAll(capabilityName, "_", " ")
}
