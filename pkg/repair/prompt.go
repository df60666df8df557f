// Package repair builds regeneration prompts from accumulated execution
// failures.
package repair

import (
	"fmt"
	"strings"

	"github.com/zen-systems/queryflow/pkg/artifact"
)

// GenerateRetryPrompt creates a prompt asking the model to fix a program
// whose execution failed. The full error history is included so repeated
// attempts do not cycle through the same mistake.
func GenerateRetryPrompt(original *artifact.Artifact, errorHistory []string) string {
	var sb strings.Builder

	sb.WriteString("The following program failed to run correctly:\n\n")
	sb.WriteString("---\n")
	sb.WriteString(original.Content)
	sb.WriteString("\n---\n\n")

	sb.WriteString("Errors from previous attempts, oldest first:\n")
	for i, errMsg := range errorHistory {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.TrimSpace(errMsg)))
	}

	sb.WriteString("\nFix all errors and return the complete corrected program.\n")
	sb.WriteString("Return ONLY the program code, no commentary.\n")

	return sb.String()
}

// GenerateEscalationPrompt creates a stronger prompt when regeneration keeps
// producing the same failing output.
func GenerateEscalationPrompt(original *artifact.Artifact, errorHistory []string) string {
	var sb strings.Builder

	sb.WriteString("Previous attempts are repeating and still fail.\n")
	sb.WriteString("Do NOT repeat the previous program; change the approach.\n\n")

	sb.WriteString("Errors so far:\n")
	for _, errMsg := range errorHistory {
		sb.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(errMsg)))
	}

	sb.WriteString("\nPrevious program:\n---\n")
	sb.WriteString(original.Content)
	sb.WriteString("\n---\n")
	sb.WriteString("\nReturn a different, corrected program. Code only.\n")

	return sb.String()
}
