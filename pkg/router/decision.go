package router

import (
	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/disambig"
	"github.com/zen-systems/queryflow/pkg/scoring"
)

// Kind tags the variant a routing decision holds. Exactly one variant's
// fields are populated per decision.
type Kind int

const (
	// KindExecute selects a single capability to run.
	KindExecute Kind = iota

	// KindDisambiguate asks the user to choose among near-tied capabilities.
	KindDisambiguate

	// KindNoMatch falls through to the generate-execute pipeline.
	KindNoMatch
)

// String returns the decision kind name.
func (k Kind) String() string {
	switch k {
	case KindExecute:
		return "execute"
	case KindDisambiguate:
		return "disambiguate"
	case KindNoMatch:
		return "no_match"
	default:
		return "unknown"
	}
}

// Decision is the terminal outcome of one routing pass.
type Decision struct {
	Kind Kind

	// Execute variant.
	Capability     capability.Capability
	EffectiveQuery string
	Resumed        bool
	KeywordMatch   string
	ModeForced     bool

	// Disambiguate variant.
	Disambiguation *disambig.Payload

	// Audit trail.
	Scores  []scoring.Score
	Reasons []string
}
