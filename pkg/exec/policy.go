package exec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Policy confines program execution: only allow-listed languages run, and
// every target path must stay inside the dataset root.
type Policy struct {
	datasetRoot      string
	allowedLanguages map[string]struct{}
}

// NewPolicy creates a policy rooted at datasetRoot. With no languages given,
// python is allowed.
func NewPolicy(datasetRoot string, languages ...string) *Policy {
	if len(languages) == 0 {
		languages = []string{"python"}
	}
	allowed := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		allowed[lang] = struct{}{}
	}
	return &Policy{datasetRoot: datasetRoot, allowedLanguages: allowed}
}

// Check validates the language and target paths for one execution.
func (p *Policy) Check(language string, targetPaths []string) error {
	if _, ok := p.allowedLanguages[language]; !ok {
		return fmt.Errorf("language %q not allowed by execution policy", language)
	}
	for _, target := range targetPaths {
		if err := p.checkTarget(target); err != nil {
			return err
		}
	}
	return nil
}

func (p *Policy) checkTarget(target string) error {
	if p.datasetRoot == "" {
		return nil
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve target %s: %w", target, err)
	}
	root, err := filepath.Abs(p.datasetRoot)
	if err != nil {
		return fmt.Errorf("resolve dataset root: %w", err)
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("target %s escapes dataset root %s", target, p.datasetRoot)
	}
	return nil
}
