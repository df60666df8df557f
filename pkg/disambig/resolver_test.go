package disambig

import (
	"testing"

	"github.com/zen-systems/queryflow/pkg/capability"
	"github.com/zen-systems/queryflow/pkg/scoring"
)

func scoredCaps(names ...string) []scoring.Score {
	scores := make([]scoring.Score, len(names))
	for i, name := range names {
		scores[i] = scoring.Score{
			Capability: &capability.FuncCapability{CapName: name, CapDescription: name},
			Value:      1.0 - float64(i)*0.01,
		}
	}
	return scores
}

func TestBuildPayload(t *testing.T) {
	codec := NewCodec()
	r := NewResolver(codec)

	payload := r.Build("show data", scoredCaps("sales_report", "usage_report"))
	if payload.OriginalQuery != "show data" {
		t.Fatalf("original query: %q", payload.OriginalQuery)
	}
	if len(payload.Options) != 2 {
		t.Fatalf("options: %+v", payload.Options)
	}

	opt := payload.Options[0]
	if opt.CapabilityName != "sales_report" {
		t.Fatalf("option order must follow candidate order: %+v", opt)
	}
	if opt.Label != "sales report" {
		t.Fatalf("underscores should read as spaces: %q", opt.Label)
	}

	token, ok := codec.Decode(opt.ResumeToken)
	if !ok {
		t.Fatalf("resume token must decode")
	}
	if token.Capability != "sales_report" || token.Query != "show data" {
		t.Fatalf("token content: %+v", token)
	}
}

func TestBuildCapsOptions(t *testing.T) {
	r := NewResolver(NewCodec())

	payload := r.Build("q", scoredCaps("a", "b", "c", "d", "e"))
	if len(payload.Options) != 3 {
		t.Fatalf("default cap is 3: %+v", payload.Options)
	}

	r = NewResolver(NewCodec(), WithMaxOptions(2))
	payload = r.Build("q", scoredCaps("a", "b", "c"))
	if len(payload.Options) != 2 {
		t.Fatalf("configured cap is 2: %+v", payload.Options)
	}
}

func TestBuildUsesLabels(t *testing.T) {
	r := NewResolver(NewCodec(), WithLabels(map[string]string{
		"sales_report": "the sales report",
	}))

	payload := r.Build("q", scoredCaps("sales_report", "usage_report"))
	if payload.Options[0].Label != "the sales report" {
		t.Fatalf("label table should win: %q", payload.Options[0].Label)
	}
	if payload.Options[1].Label != "usage report" {
		t.Fatalf("fallback label: %q", payload.Options[1].Label)
	}
}
