// Package multitarget runs one capability against several datasets in
// parallel and aggregates per-target outcomes, tolerating partial failure.
package multitarget

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zen-systems/queryflow/pkg/capability"
)

// Target is one dataset to evaluate. OrderKey is the caller-supplied sort
// key (e.g. a period label); results come back ordered by it regardless of
// completion order.
type Target struct {
	Name     string
	Path     string
	OrderKey string
}

// TargetResult is the outcome for one target.
type TargetResult struct {
	Target   Target            `json:"target"`
	Result   capability.Result `json:"result"`
	Err      string            `json:"error,omitempty"`
	TimedOut bool              `json:"timed_out,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// AggregatedResult collects all per-target outcomes. Success is the OR over
// per-target successes: partial success still counts, callers inspect the
// per-target results for detail.
type AggregatedResult struct {
	Success bool           `json:"success"`
	Results []TargetResult `json:"results"`
}

// Executor fans capability execution out over a bounded worker pool.
type Executor struct {
	workerCap     int
	targetTimeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkerCap sets the hard cap on concurrent target tasks.
func WithWorkerCap(cap int) ExecutorOption {
	return func(e *Executor) {
		if cap > 0 {
			e.workerCap = cap
		}
	}
}

// WithTargetTimeout sets the per-target execution timeout.
func WithTargetTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		if timeout > 0 {
			e.targetTimeout = timeout
		}
	}
}

// NewExecutor creates a multi-target executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		workerCap:     8,
		targetTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteAcrossTargets runs the capability once per target. A timeout or
// panic in one target becomes a failed per-target result and never aborts
// its siblings. Parent cancellation aborts in-flight targets; targets that
// never started report a cancellation failure.
func (e *Executor) ExecuteAcrossTargets(ctx context.Context, cap capability.Capability, targets []Target, query string) (*AggregatedResult, error) {
	if cap == nil {
		return nil, fmt.Errorf("capability is required")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}

	workers := e.poolSize(len(targets))
	sem := semaphore.NewWeighted(int64(workers))

	results := make([]TargetResult, len(targets))
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = TargetResult{
					Target: target,
					Err:    fmt.Sprintf("cancelled before start: %v", err),
				}
				return
			}
			defer sem.Release(1)

			results[i] = e.runTarget(ctx, cap, target, query)
		}(i, target)
	}

	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		ki, kj := orderKey(results[i].Target), orderKey(results[j].Target)
		return ki < kj
	})

	agg := &AggregatedResult{Results: results}
	for _, r := range results {
		if r.Result.Success {
			agg.Success = true
			break
		}
	}
	return agg, nil
}

// runTarget executes one target with its own timeout and panic isolation.
func (e *Executor) runTarget(ctx context.Context, cap capability.Capability, target Target, query string) (result TargetResult) {
	result.Target = target
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.Result = capability.Result{}
			result.Err = fmt.Sprintf("capability panicked: %v", r)
		}
	}()

	targetCtx, cancel := context.WithTimeout(capability.WithTarget(ctx, target.Path), e.targetTimeout)
	defer cancel()

	res := cap.Execute(targetCtx, query)

	if targetCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.Result = capability.Result{}
		result.Err = fmt.Sprintf("target %s timed out after %s", target.Name, e.targetTimeout)
		return result
	}

	result.Result = res
	if !res.Success {
		result.Err = res.Error
	}
	return result
}

// poolSize bounds the worker pool to min(targets, 2x logical CPUs, cap).
func (e *Executor) poolSize(targets int) int {
	size := targets
	if cpus := 2 * runtime.NumCPU(); cpus < size {
		size = cpus
	}
	if e.workerCap < size {
		size = e.workerCap
	}
	if size < 1 {
		size = 1
	}
	return size
}

func orderKey(t Target) string {
	if t.OrderKey != "" {
		return t.OrderKey
	}
	return t.Name
}
