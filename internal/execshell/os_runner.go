package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

const (
	environmentAssignmentSeparatorConstant = "="
)

// OSCommandRunner executes shell commands as child processes of the vcsync process.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs the default process-backed command runner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the described command and waits for it to finish, capturing both
// output streams. A non-zero exit status is reported through the
// ExecutionResult rather than as an error; only a command that could not run
// to completion produces an error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	processCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		processCommand.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		processEnvironment := os.Environ()
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			processEnvironment = append(processEnvironment, environmentKey+environmentAssignmentSeparatorConstant+environmentValue)
		}
		processCommand.Env = processEnvironment
	}

	standardOutputBuffer := &bytes.Buffer{}
	standardErrorBuffer := &bytes.Buffer{}
	processCommand.Stdout = standardOutputBuffer
	processCommand.Stderr = standardErrorBuffer

	if len(command.Details.StandardInput) > 0 {
		processCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := processCommand.Run()
	exitCode := 0
	if runError != nil {
		exitError := &exec.ExitError{}
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		exitCode = exitError.ExitCode()
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       exitCode,
	}, nil
}
