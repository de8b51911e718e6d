package container

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandExecutor interface for executing commands (allows mocking in tests)
type CommandExecutor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandExecutor implements CommandExecutor using standard exec
type DefaultCommandExecutor struct{}

func (e *DefaultCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Runner executes an external command and returns its standard output.
// A non-zero exit yields a *ContainerError carrying the captured stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner implements Runner with a CommandExecutor
type ExecRunner struct {
	executor CommandExecutor
}

// NewExecRunner creates a runner. A nil executor uses os/exec directly.
func NewExecRunner(executor CommandExecutor) *ExecRunner {
	if executor == nil {
		executor = &DefaultCommandExecutor{}
	}
	return &ExecRunner{executor: executor}
}

// Run executes name with args and returns stdout
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := r.executor.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := stderr.String()
		message := strings.TrimSpace(errOutput)
		if message == "" {
			message = err.Error()
		}
		return "", &ContainerError{
			Type:       parseDockerError(errOutput, err),
			Operation:  strings.TrimSpace(name + " " + strings.Join(args, " ")),
			Message:    "Command failed: " + message,
			Underlying: err,
			Output:     errOutput,
		}
	}

	return stdout.String(), nil
}
