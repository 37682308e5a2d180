package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitCloneSubcommandNameConstant    = "clone"
	gitBranchSubcommandNameConstant   = "branch"
	gitRemotesFlagConstant            = "-r"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitForceCreateFlagConstant        = "-B"
	gitFetchSubcommandNameConstant    = "fetch"
	gitMergeSubcommandNameConstant    = "merge"
	gitRemoveSubcommandNameConstant   = "rm"
	gitAddSubcommandNameConstant      = "add"
	gitCommitSubcommandNameConstant   = "commit"
	gitMessageFlagConstant            = "-m"
	gitPushSubcommandNameConstant     = "push"
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitConfigSubcommandNameConstant   = "config"
)

const (
	gitCloneStartTemplateConstant             = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant           = "Cloned %s into %s"
	gitCloneFailureTemplateConstant           = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant  = "Unable to clone %s into %s: %s"
	gitBranchListStartTemplateConstant        = "Listing remote branches in %s"
	gitBranchListSuccessTemplateConstant      = "Listed remote branches in %s"
	gitBranchListFailureTemplateConstant      = "Failed to list remote branches in %s (exit code %d%s)"
	gitBranchListExecutionFailureTemplate     = "Unable to list remote branches in %s: %s"
	gitCheckoutStartTemplateConstant          = "Switching %s to %s"
	gitCheckoutCreateStartTemplateConstant    = "Creating branch %s in %s"
	gitCheckoutSuccessTemplateConstant        = "%s now on %s"
	gitCheckoutCreateSuccessTemplateConstant  = "Created branch %s in %s"
	gitCheckoutFailureTemplateConstant        = "Failed to switch %s to %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplate       = "Unable to switch %s to %s: %s"
	gitFetchStartTemplateConstant             = "Fetching remotes in %s"
	gitFetchSuccessTemplateConstant           = "Fetched remotes in %s"
	gitFetchFailureTemplateConstant           = "Failed to fetch remotes in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant  = "Unable to fetch remotes in %s: %s"
	gitMergeStartTemplateConstant             = "Merging %s in %s"
	gitMergeSuccessTemplateConstant           = "Merged %s in %s"
	gitMergeFailureTemplateConstant           = "Failed to merge %s in %s (exit code %d%s)"
	gitMergeExecutionFailureTemplateConstant  = "Unable to merge %s in %s: %s"
	gitRemoveStartTemplateConstant            = "Removing tracked files in %s"
	gitRemoveSuccessTemplateConstant          = "Removed tracked files in %s"
	gitRemoveFailureTemplateConstant          = "Failed to remove tracked files in %s (exit code %d%s)"
	gitRemoveExecutionFailureTemplateConstant = "Unable to remove tracked files in %s: %s"
	gitAddStartTemplateConstant               = "Staging changes in %s"
	gitAddSuccessTemplateConstant             = "Staged changes in %s"
	gitAddFailureTemplateConstant             = "Failed to stage changes in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant    = "Unable to stage changes in %s: %s"
	gitCommitStartTemplateConstant            = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant          = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant          = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant = "Unable to create commit in %s with message %q: %s"
	gitPushStartTemplateConstant              = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant            = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant            = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant   = "Unable to push %s to %s from %s: %s"
	gitRevisionStartTemplateConstant          = "Resolving %s in %s"
	gitRevisionSuccessTemplateConstant        = "%s in %s resolved to %s"
	gitRevisionEmptySuccessTemplateConstant   = "%s in %s did not resolve to a revision"
	gitRevisionFailureTemplateConstant        = "Failed to resolve %s in %s (exit code %d%s)"
	gitRevisionExecutionFailureTemplate       = "Unable to resolve %s in %s: %s"
	gitConfigStartTemplateConstant            = "Setting %s in %s"
	gitConfigSuccessTemplateConstant          = "Set %s in %s"
	gitConfigFailureTemplateConstant          = "Failed to set %s in %s (exit code %d%s)"
	gitConfigExecutionFailureTemplateConstant = "Unable to set %s in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitCloneSubcommandNameConstant:
		return formatter.describeGitCloneMessage(command, result, failure, stage)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitFetchSubcommandNameConstant:
		return formatter.describeSimpleGitMessage(command, result, failure, stage, gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant)
	case gitMergeSubcommandNameConstant:
		return formatter.describeGitMergeMessage(command, result, failure, stage)
	case gitRemoveSubcommandNameConstant:
		return formatter.describeSimpleGitMessage(command, result, failure, stage, gitRemoveStartTemplateConstant, gitRemoveSuccessTemplateConstant, gitRemoveFailureTemplateConstant, gitRemoveExecutionFailureTemplateConstant)
	case gitAddSubcommandNameConstant:
		return formatter.describeSimpleGitMessage(command, result, failure, stage, gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionFailureTemplateConstant)
	case gitCommitSubcommandNameConstant:
		return formatter.describeGitCommitMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	case gitConfigSubcommandNameConstant:
		return formatter.describeGitConfigMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := formatter.nonFlagArguments(command.Details.Arguments[1:])
	cloneSource := formatter.ensureValue(formatter.argumentAtIndex(arguments, 0))
	cloneDestination := formatter.ensureValue(formatter.argumentAtIndex(arguments, 1))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCloneStartTemplateConstant, cloneSource, cloneDestination)
	case messageStageSuccess:
		return fmt.Sprintf(gitCloneSuccessTemplateConstant, cloneSource, cloneDestination)
	case messageStageFailure:
		return fmt.Sprintf(gitCloneFailureTemplateConstant, cloneSource, cloneDestination, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, cloneSource, cloneDestination, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if !containsArgument(command.Details.Arguments, gitRemotesFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitBranchListStartTemplateConstant, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitBranchListSuccessTemplateConstant, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitBranchListFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitBranchListExecutionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	createsBranch := containsArgument(command.Details.Arguments, gitForceCreateFlagConstant)
	branchArguments := formatter.nonFlagArguments(command.Details.Arguments[1:])
	branchName := formatter.ensureValue(formatter.argumentAtIndex(branchArguments, 0))

	switch stage {
	case messageStageStart:
		if createsBranch {
			return fmt.Sprintf(gitCheckoutCreateStartTemplateConstant, branchName, workingDirectory)
		}
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
	case messageStageSuccess:
		if createsBranch {
			return fmt.Sprintf(gitCheckoutCreateSuccessTemplateConstant, branchName, workingDirectory)
		}
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplate, workingDirectory, branchName, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMergeMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	mergeSource := formatter.ensureValue(formatter.argumentAtIndex(formatter.nonFlagArguments(command.Details.Arguments[1:]), 0))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitMergeStartTemplateConstant, mergeSource, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitMergeSuccessTemplateConstant, mergeSource, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitMergeFailureTemplateConstant, mergeSource, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitMergeExecutionFailureTemplateConstant, mergeSource, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	commitMessage := formatter.extractFlagValue(command.Details.Arguments, gitMessageFlagConstant)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, commitMessage)
	case messageStageSuccess:
		return fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory, commitMessage)
	case messageStageFailure:
		return fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, commitMessage, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCommitExecutionFailureTemplateConstant, workingDirectory, commitMessage, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	pushArguments := formatter.nonFlagArguments(command.Details.Arguments[1:])
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(pushArguments, 0))
	branchName := formatter.ensureValue(formatter.argumentAtIndex(pushArguments, 1))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitPushStartTemplateConstant, branchName, remoteName, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitPushSuccessTemplateConstant, branchName, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, branchName, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, branchName, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	reference := formatter.ensureValue(formatter.lastArgument(command.Details.Arguments))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRevisionStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		trimmedOutput := strings.TrimSpace(result.StandardOutput)
		if len(trimmedOutput) == 0 {
			return fmt.Sprintf(gitRevisionEmptySuccessTemplateConstant, reference, workingDirectory)
		}
		return fmt.Sprintf(gitRevisionSuccessTemplateConstant, reference, workingDirectory, trimmedOutput)
	case messageStageFailure:
		return fmt.Sprintf(gitRevisionFailureTemplateConstant, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRevisionExecutionFailureTemplate, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitConfigMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	configurationKey := formatter.ensureValue(formatter.argumentAtIndex(formatter.nonFlagArguments(command.Details.Arguments[1:]), 0))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitConfigStartTemplateConstant, configurationKey, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitConfigSuccessTemplateConstant, configurationKey, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitConfigFailureTemplateConstant, configurationKey, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitConfigExecutionFailureTemplateConstant, configurationKey, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSimpleGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := ""
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) nonFlagArguments(arguments []string) []string {
	filtered := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		if strings.HasPrefix(trimmedArgument, "-") {
			continue
		}
		filtered = append(filtered, trimmedArgument)
	}
	return filtered
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	if len(arguments) == 0 {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[len(arguments)-1])
}

func (formatter CommandMessageFormatter) extractFlagValue(arguments []string, flagName string) string {
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flagName && argumentIndex+1 < len(arguments) {
			return strings.TrimSpace(arguments[argumentIndex+1])
		}
	}
	return fallbackUnknownValueLabelConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmedValue
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
