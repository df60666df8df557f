package adapter

import (
	"context"
	"fmt"
	"testing"
)

// flakyAdapter fails a set number of times before succeeding.
type flakyAdapter struct {
	failures int
	calls    int
	err      error
}

func (f *flakyAdapter) Name() string     { return "flaky" }
func (f *flakyAdapter) Models() []string { return []string{"flaky-1"} }

func (f *flakyAdapter) Generate(_ context.Context, _, _ string) (*Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &Response{Content: "ok"}, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseBackoffMs: 1, MaxBackoffMs: 2}
}

func TestCallRetriesTransientErrors(t *testing.T) {
	a := &flakyAdapter{failures: 2, err: &AdapterError{Status: 503}}

	resp, err := Call(context.Background(), a, "flaky-1", "prompt", fastPolicy())
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if resp.Content != "ok" {
		t.Fatalf("content: %q", resp.Content)
	}
	if a.calls != 3 {
		t.Fatalf("calls: %d", a.calls)
	}
}

func TestCallStopsOnNonTransientError(t *testing.T) {
	a := &flakyAdapter{failures: 5, err: &AdapterError{Status: 401}}

	_, err := Call(context.Background(), a, "flaky-1", "prompt", fastPolicy())
	if err == nil {
		t.Fatalf("expected error")
	}
	if a.calls != 1 {
		t.Fatalf("non-transient errors must not retry: %d calls", a.calls)
	}
}

func TestCallExhaustsRetries(t *testing.T) {
	a := &flakyAdapter{failures: 10, err: &AdapterError{Status: 429}}

	_, err := Call(context.Background(), a, "flaky-1", "prompt", fastPolicy())
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if a.calls != 3 {
		t.Fatalf("calls: %d", a.calls)
	}
}

func TestCallStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &flakyAdapter{failures: 10, err: &AdapterError{Status: 503}}

	_, err := Call(ctx, a, "flaky-1", "prompt", fastPolicy())
	if err == nil {
		t.Fatalf("expected error")
	}
	// First call happens, then the backoff sleep observes cancellation.
	if a.calls > 1 {
		t.Fatalf("cancelled context must not keep retrying: %d calls", a.calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limited", &AdapterError{Status: 429}, true},
		{"server error", &AdapterError{Status: 502}, true},
		{"auth failure", &AdapterError{Status: 401}, false},
		{"flagged temporary", &AdapterError{Temporary: true}, true},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMockAdapterDeterministic(t *testing.T) {
	a := NewMockAdapterWithResponses(map[string]string{"known prompt": "canned"}, "fallback")

	resp, err := a.Generate(context.Background(), "mock-1", "known prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "canned" {
		t.Fatalf("content: %q", resp.Content)
	}

	resp, err = a.Generate(context.Background(), "mock-1", "other prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "fallback\nother prompt" {
		t.Fatalf("content: %q", resp.Content)
	}
}
