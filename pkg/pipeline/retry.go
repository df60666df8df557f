package pipeline

import "github.com/zen-systems/queryflow/pkg/exec"

// defaultFailureMessage stands in for an empty stderr so the error history
// length always matches the number of failed attempts.
const defaultFailureMessage = "execution failed with no error output"

// Controller is the bounded-retry policy consulted between execution and
// interpretation.
type Controller struct {
	maxRetries int
}

// NewController creates a retry controller. A negative max is treated as 0.
func NewController(maxRetries int) *Controller {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Controller{maxRetries: maxRetries}
}

// MaxRetries returns the configured retry bound.
func (c *Controller) MaxRetries() int {
	return c.maxRetries
}

// ShouldRetry is a pure predicate: retry iff the execution failed and the
// bound has not been reached.
func (c *Controller) ShouldRetry(result *exec.Result, retryCount int) bool {
	if result == nil || result.Success {
		return false
	}
	return retryCount < c.maxRetries
}

// RecordFailure appends the failure to the error history and increments the
// retry counter. This is the controller's only side effect; the caller owns
// st exclusively, so no two retries of the same query can race.
func (c *Controller) RecordFailure(st *QueryState, result *exec.Result) {
	msg := defaultFailureMessage
	if result != nil && result.Stderr != "" {
		msg = result.Stderr
	}
	st.ErrorHistory = append(st.ErrorHistory, msg)
	st.RetryCount++
}
