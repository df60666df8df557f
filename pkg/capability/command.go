package capability

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandCapability answers queries by running a pre-built local command.
// The query is passed through the QUERYFLOW_QUERY environment variable and
// the command's stdout becomes the result payload. This is the deployment
// path for handlers authored outside the process.
type CommandCapability struct {
	name        string
	description string
	command     []string
	workdir     string
	timeout     time.Duration
}

// NewCommandCapability creates a command-backed capability.
func NewCommandCapability(name, description string, command []string, workdir string, timeout time.Duration) (*CommandCapability, error) {
	if name == "" {
		return nil, fmt.Errorf("command capability requires a name")
	}
	if len(command) == 0 {
		return nil, fmt.Errorf("command capability %s requires a command", name)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CommandCapability{
		name:        name,
		description: description,
		command:     command,
		workdir:     workdir,
		timeout:     timeout,
	}, nil
}

// Name returns the capability identifier.
func (c *CommandCapability) Name() string { return c.name }

// Description returns the capability description.
func (c *CommandCapability) Description() string { return c.description }

// CanHandle always accepts; keyword and score gating happen in the router.
func (c *CommandCapability) CanHandle(string) bool { return true }

// Execute runs the command with its own timeout and captures output.
func (c *CommandCapability) Execute(ctx context.Context, query string) Result {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.command[0], c.command[1:]...)
	if c.workdir != "" {
		cmd.Dir = c.workdir
	}
	cmd.Env = append(cmd.Environ(), "QUERYFLOW_QUERY="+query)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return Failure(fmt.Sprintf("capability %s timed out after %s", c.name, c.timeout))
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Failure(fmt.Sprintf("capability %s failed: %s", c.name, msg))
	}

	return Result{
		Success: true,
		Payload: map[string]any{
			"output": strings.TrimSpace(stdout.String()),
		},
	}
}
