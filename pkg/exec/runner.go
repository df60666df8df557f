// Package exec runs generated data-access programs in a subprocess with an
// enforced timeout, capturing stdout and stderr for the retry loop.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/zen-systems/queryflow/pkg/artifact"
)

// Result is the outcome of one program execution.
type Result struct {
	Success  bool          `json:"success"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Runner executes a generated program against dataset paths.
type Runner interface {
	Run(ctx context.Context, program *artifact.Artifact, targetPaths []string) (*Result, error)
}

// SubprocessRunner runs programs with allow-listed interpreters. The program
// is written to a temp file and invoked as  interpreter <file> <target...>.
type SubprocessRunner struct {
	interpreters map[string][]string
	policy       *Policy
	timeout      time.Duration
}

// RunnerOption configures a SubprocessRunner.
type RunnerOption func(*SubprocessRunner)

// WithTimeout sets the per-execution timeout.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *SubprocessRunner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithInterpreter registers or overrides the interpreter argv for a language.
func WithInterpreter(language string, argv ...string) RunnerOption {
	return func(r *SubprocessRunner) {
		r.interpreters[language] = argv
	}
}

// NewSubprocessRunner creates a runner with the given execution policy.
func NewSubprocessRunner(policy *Policy, opts ...RunnerOption) *SubprocessRunner {
	r := &SubprocessRunner{
		interpreters: map[string][]string{
			"python": {"python3"},
			"sh":     {"/bin/sh"},
		},
		policy:  policy,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the program. Execution failures (non-zero exit, timeout) are
// reported in the Result; an error is returned only when the program could
// not be started at all.
func (r *SubprocessRunner) Run(ctx context.Context, program *artifact.Artifact, targetPaths []string) (*Result, error) {
	if program == nil || strings.TrimSpace(program.Content) == "" {
		return nil, fmt.Errorf("runner requires a non-empty program")
	}

	argv, ok := r.interpreters[program.Language]
	if !ok {
		return nil, fmt.Errorf("no interpreter registered for language %q", program.Language)
	}

	if r.policy != nil {
		if err := r.policy.Check(program.Language, targetPaths); err != nil {
			return nil, err
		}
	}

	file, err := writeProgram(program)
	if err != nil {
		return nil, err
	}
	defer os.Remove(file)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string{}, argv[1:]...), file)
	args = append(args, targetPaths...)
	cmd := exec.CommandContext(runCtx, argv[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("execution timed out after %s", r.timeout)
		return result, nil
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			if result.Stderr == "" {
				result.Stderr = runErr.Error()
			}
			return result, nil
		}
		return nil, fmt.Errorf("start program: %w", runErr)
	}

	result.Success = true
	return result, nil
}

func writeProgram(program *artifact.Artifact) (string, error) {
	ext := ".txt"
	switch program.Language {
	case "python":
		ext = ".py"
	case "sh":
		ext = ".sh"
	}

	file, err := os.CreateTemp("", "queryflow-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create program file: %w", err)
	}
	if _, err := file.WriteString(program.Content); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write program file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return filepath.Clean(file.Name()), nil
}
