package exec

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/zen-systems/queryflow/pkg/artifact"
)

func shProgram(content string) *artifact.Artifact {
	return artifact.New(content, "sh", "mock", "mock-1", "prompt")
}

func newShRunner(opts ...RunnerOption) *SubprocessRunner {
	policy := NewPolicy("", "sh")
	return NewSubprocessRunner(policy, opts...)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
}

func TestRunSuccess(t *testing.T) {
	skipOnWindows(t)
	r := newShRunner()

	res, err := r.Run(context.Background(), shProgram(`echo "answer: 42"`), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success: %+v", res)
	}
	if !strings.Contains(res.Stdout, "answer: 42") {
		t.Fatalf("stdout: %q", res.Stdout)
	}
	if res.Duration <= 0 {
		t.Fatalf("duration not recorded")
	}
}

func TestRunPassesTargetsAsArguments(t *testing.T) {
	skipOnWindows(t)
	r := newShRunner()

	res, err := r.Run(context.Background(), shProgram(`echo "$1 $2"`), []string{"/data/a.csv", "/data/b.csv"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Stdout, "/data/a.csv /data/b.csv") {
		t.Fatalf("targets not forwarded: %q", res.Stdout)
	}
}

func TestRunNonZeroExitIsFailedResult(t *testing.T) {
	skipOnWindows(t)
	r := newShRunner()

	res, err := r.Run(context.Background(), shProgram("echo oops >&2; exit 2"), nil)
	if err != nil {
		t.Fatalf("exit failure must not be a Go error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failed result")
	}
	if res.ExitCode != 2 {
		t.Fatalf("exit code: %d", res.ExitCode)
	}
	if !strings.Contains(res.Stderr, "oops") {
		t.Fatalf("stderr: %q", res.Stderr)
	}
}

func TestRunTimeout(t *testing.T) {
	skipOnWindows(t)
	r := newShRunner(WithTimeout(100 * time.Millisecond))

	res, err := r.Run(context.Background(), shProgram("sleep 5"), nil)
	if err != nil {
		t.Fatalf("timeout must not be a Go error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected failed result")
	}
	if res.ExitCode != -1 || !strings.Contains(res.Stderr, "timed out") {
		t.Fatalf("timeout not reported: %+v", res)
	}
}

func TestRunRejectsEmptyProgram(t *testing.T) {
	r := newShRunner()
	if _, err := r.Run(context.Background(), shProgram("   "), nil); err == nil {
		t.Fatalf("expected error for empty program")
	}
	if _, err := r.Run(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil program")
	}
}

func TestRunRejectsUnknownLanguage(t *testing.T) {
	r := newShRunner()
	program := artifact.New("puts 1", "ruby", "mock", "mock-1", "prompt")
	if _, err := r.Run(context.Background(), program, nil); err == nil {
		t.Fatalf("expected error for unregistered interpreter")
	}
}

func TestPolicyAllowsInsideRoot(t *testing.T) {
	root := t.TempDir()
	p := NewPolicy(root, "sh")

	if err := p.Check("sh", []string{root + "/data.csv"}); err != nil {
		t.Fatalf("inside root should pass: %v", err)
	}
}

func TestPolicyRejectsEscape(t *testing.T) {
	root := t.TempDir()
	p := NewPolicy(root, "sh")

	cases := []string{
		root + "/../outside.csv",
		"/etc/passwd",
	}
	for _, target := range cases {
		if err := p.Check("sh", []string{target}); err == nil {
			t.Fatalf("escape should be rejected: %s", target)
		}
	}
}

func TestPolicyRejectsLanguage(t *testing.T) {
	p := NewPolicy("", "python")
	if err := p.Check("sh", nil); err == nil {
		t.Fatalf("disallowed language should be rejected")
	}
	if err := p.Check("python", nil); err != nil {
		t.Fatalf("allowed language rejected: %v", err)
	}
}

func TestPolicyEmptyRootSkipsTargetCheck(t *testing.T) {
	p := NewPolicy("", "sh")
	if err := p.Check("sh", []string{"/anywhere/at/all.csv"}); err != nil {
		t.Fatalf("empty root must not confine targets: %v", err)
	}
}
