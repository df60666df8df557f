package repair

import (
	"strings"
	"testing"

	"github.com/zen-systems/queryflow/pkg/artifact"
)

func TestGenerateRetryPromptIncludesHistory(t *testing.T) {
	art := artifact.New("print(1)", "python", "mock", "mock-1", "prompt")

	prompt := GenerateRetryPrompt(art, []string{"NameError: df", "KeyError: 'date'"})
	if !strings.Contains(prompt, "print(1)") {
		t.Fatalf("missing original program")
	}
	if !strings.Contains(prompt, "1. NameError: df") {
		t.Fatalf("missing first error")
	}
	if !strings.Contains(prompt, "2. KeyError: 'date'") {
		t.Fatalf("missing second error")
	}
}

func TestGenerateEscalationPromptWarnsAgainstRepeat(t *testing.T) {
	art := artifact.New("original", "python", "mock", "mock-1", "prompt")

	prompt := GenerateEscalationPrompt(art, []string{"same failure"})
	if !strings.Contains(prompt, "Do NOT repeat the previous program") {
		t.Fatalf("missing repeat warning")
	}
	if !strings.Contains(prompt, "same failure") {
		t.Fatalf("missing error history")
	}
}
