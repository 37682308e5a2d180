package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedErrorTemplateConstant        = "%s command failed with exit code %d%s"
	commandExecutionErrorTemplateConstant     = "%s command execution failed: %s"
	standardErrorDetailTemplateConstant       = ": %s"
	logFieldCommandNameConstant               = "command_name"
	logFieldCommandArgumentsConstant          = "command_arguments"
	logFieldWorkingDirectoryConstant          = "working_directory"
	logFieldExitCodeConstant                  = "exit_code"
)

var (
	// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that completed with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the command failure including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	standardErrorDetail := ""
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorDetail = fmt.Sprintf(standardErrorDetailTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.Name, failure.Result.ExitCode, standardErrorDetail)
}

// CommandExecutionError reports a command that could not be executed at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying execution error.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// ShellExecutor runs shell commands through a CommandRunner while logging lifecycle events.
type ShellExecutor struct {
	logger               *zap.Logger
	commandRunner        CommandRunner
	messageFormatter     CommandMessageFormatter
	humanReadableLogging bool
}

// NewShellExecutor constructs a ShellExecutor with the provided collaborators.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, humanReadableLogging bool) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:               logger,
		commandRunner:        commandRunner,
		messageFormatter:     CommandMessageFormatter{},
		humanReadableLogging: humanReadableLogging,
	}

	return executor, nil
}

// ExecuteGit runs a git command described by the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// Execute runs the supplied command and surfaces typed failures.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logCommandEvent(executor.logger.Debug, executor.messageFormatter.BuildStartedMessage(command), command, nil)

	executionResult, executionError := executor.commandRunner.Run(executionContext, command)
	if executionError != nil {
		failure := CommandExecutionError{Command: command, Cause: executionError}
		executor.logCommandEvent(executor.logger.Error, executor.messageFormatter.BuildExecutionFailureMessage(command, executionError), command, nil)
		return ExecutionResult{}, failure
	}

	if executionResult.ExitCode != 0 {
		failure := CommandFailedError{Command: command, Result: executionResult}
		executor.logCommandEvent(executor.logger.Debug, executor.messageFormatter.BuildFailureMessage(command, executionResult), command, &executionResult)
		return ExecutionResult{}, failure
	}

	executor.logCommandEvent(executor.logger.Debug, executor.messageFormatter.BuildSuccessMessage(command), command, &executionResult)
	return executionResult, nil
}

func (executor *ShellExecutor) logCommandEvent(logFunction func(string, ...zap.Field), message string, command ShellCommand, result *ExecutionResult) {
	if executor.humanReadableLogging {
		logFunction(message)
		return
	}

	logFields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldCommandArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}
	if result != nil {
		logFields = append(logFields, zap.Int(logFieldExitCodeConstant, result.ExitCode))
	}
	logFunction(message, logFields...)
}
