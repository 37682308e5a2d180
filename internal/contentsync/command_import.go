package contentsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/contentforge/vcsync/internal/execshell"
	"github.com/contentforge/vcsync/internal/giteaapi"
	"github.com/contentforge/vcsync/internal/gitrepo"
)

const (
	importCommandUseConstant                  = "import"
	importCommandShortDescriptionConstant     = "Import a product content tree onto a version branch"
	importCommandLongDescriptionConstant      = "import provisions the Gitea organization and repository, resolves the base branch from existing version branches, replaces the target branch content with the configured content directory, and force-pushes the result."
	importExecutionErrorTemplateConstant      = "content import failed: %w"
	forceFlagNameConstant                     = "force"
	forceFlagUsageConstant                    = "Re-import content even when the target branch already exists"
	baseBranchFlagNameConstant                = "base-branch"
	baseBranchFlagUsageConstant               = "Base branch name, or semver_previous_if_exists to resolve by version"
	contentDirectoryFlagNameConstant          = "content"
	contentDirectoryFlagUsageConstant         = "Directory holding the content tree to import"
	userAgentTemplateConstant                 = "vcsync %s/%s"
	repositoryManagerCreationErrorTemplate    = "unable to construct repository manager: %w"
	giteaClientCreationErrorTemplateConstant  = "unable to construct gitea client: %w"
	importCompletedLogMessageConstant         = "Content import completed"
	importBranchFieldConstant                 = "import_branch"
	headCommitFieldConstant                   = "head_commit"
	contentUpdatedFieldConstant               = "content_updated"
)

// CommandExecutor abstracts shell execution for command wiring.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ImportCommandBuilder assembles the import Cobra command.
type ImportCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	GiteaClient                  GiteaOperations
	ContentCopier                ContentCopier
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() ImportConfiguration
}

// Build constructs the import command.
func (builder *ImportCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           importCommandUseConstant,
		Short:         importCommandShortDescriptionConstant,
		Long:          importCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runImport,
	}

	command.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)
	command.Flags().String(baseBranchFlagNameConstant, "", baseBranchFlagUsageConstant)
	command.Flags().String(contentDirectoryFlagNameConstant, "", contentDirectoryFlagUsageConstant)

	return command, nil
}

func (builder *ImportCommandBuilder) runImport(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	applyImportFlagOverrides(command, &configuration)

	if validationError := configuration.Validate(); validationError != nil {
		return validationError
	}

	logger := resolveLogger(builder.LoggerProvider, configuration.EnableDebugLogging)

	executor, executorError := resolveExecutor(builder.Executor, logger, builder.HumanReadableLoggingProvider)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := gitrepo.NewRepositoryManager(executor)
	if managerError != nil {
		return fmt.Errorf(repositoryManagerCreationErrorTemplate, managerError)
	}

	giteaClient, clientError := builder.resolveGiteaClient(command.Context(), configuration, logger)
	if clientError != nil {
		return clientError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:            logger,
		RepositoryManager: repositoryManager,
		GiteaClient:       giteaClient,
		ContentCopier:     builder.ContentCopier,
	})
	if serviceError != nil {
		return serviceError
	}

	cloneURL, cloneURLError := configuration.CloneURL()
	if cloneURLError != nil {
		return cloneURLError
	}

	repositoryPath := configuration.WorkingDirectory
	if len(repositoryPath) == 0 {
		repositoryPath = filepath.Join(os.TempDir(), configuration.ProductName)
	}

	importResult, importError := service.ExecuteImport(command.Context(), ImportOptions{
		RepositoryPath:      repositoryPath,
		CloneURL:            cloneURL,
		ProductName:         configuration.ProductName,
		ProductVersion:      configuration.ProductVersion,
		OrganizationName:    configuration.GiteaOrganization,
		RepositoryName:      configuration.ResolvedRepositoryName(),
		BranchPrefix:        configuration.BranchPrefix(),
		TargetBranch:        configuration.TargetBranch(),
		RequestedBaseBranch: configuration.BaseBranch,
		ContentDirectory:    configuration.ContentDirectory,
		CommitterUser:       configuration.GiteaUsername,
		PrivateRepository:   configuration.PrivateRepository,
		ForceExistingBranch: configuration.ForceExistingBranch,
		ProtectBranch:       configuration.ProtectBranch,
		RecordsPath:         configuration.RecordsPath,
	})
	if importError != nil {
		return fmt.Errorf(importExecutionErrorTemplateConstant, importError)
	}

	logger.Info(
		importCompletedLogMessageConstant,
		zap.String(importBranchFieldConstant, importResult.TargetBranch),
		zap.String(headCommitFieldConstant, importResult.HeadCommit),
		zap.Bool(contentUpdatedFieldConstant, importResult.ContentUpdated),
	)

	return nil
}

func (builder *ImportCommandBuilder) resolveConfiguration() ImportConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultImportConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *ImportCommandBuilder) resolveGiteaClient(executionContext context.Context, configuration ImportConfiguration, logger *zap.Logger) (GiteaOperations, error) {
	if builder.GiteaClient != nil {
		return builder.GiteaClient, nil
	}

	return newGiteaClientAdapter(executionContext, giteaClientParameters{
		apiBaseURL: configuration.APIBaseURL(),
		username:   configuration.GiteaUsername,
		password:   configuration.GiteaPassword,
		userAgent:  fmt.Sprintf(userAgentTemplateConstant, configuration.ProductName, configuration.ProductVersion),
	}, logger)
}

func applyImportFlagOverrides(command *cobra.Command, configuration *ImportConfiguration) {
	if command == nil {
		return
	}
	if command.Flags().Changed(forceFlagNameConstant) {
		flagValue, _ := command.Flags().GetBool(forceFlagNameConstant)
		configuration.ForceExistingBranch = flagValue
	}
	if command.Flags().Changed(baseBranchFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(baseBranchFlagNameConstant)
		configuration.BaseBranch = strings.TrimSpace(flagValue)
	}
	if command.Flags().Changed(contentDirectoryFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(contentDirectoryFlagNameConstant)
		configuration.ContentDirectory = strings.TrimSpace(flagValue)
	}
}

func resolveLogger(loggerProvider LoggerProvider, enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if loggerProvider != nil {
		logger = loggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func resolveExecutor(configuredExecutor CommandExecutor, logger *zap.Logger, humanReadableLoggingProvider func() bool) (CommandExecutor, error) {
	if configuredExecutor != nil {
		return configuredExecutor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if humanReadableLoggingProvider != nil {
		humanReadableLogging = humanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

type giteaClientParameters struct {
	apiBaseURL string
	username   string
	password   string
	userAgent  string
}

// giteaClientAdapter narrows the giteaapi client to the GiteaOperations capability.
type giteaClientAdapter struct {
	client *giteaapi.Client
}

func newGiteaClientAdapter(executionContext context.Context, parameters giteaClientParameters, logger *zap.Logger) (*giteaClientAdapter, error) {
	client, creationError := giteaapi.NewClient(giteaapi.ClientOptions{
		BaseURL:   parameters.apiBaseURL,
		Username:  parameters.username,
		Password:  parameters.password,
		UserAgent: parameters.userAgent,
	}, logger)
	if creationError != nil {
		return nil, fmt.Errorf(giteaClientCreationErrorTemplateConstant, creationError)
	}

	if readinessError := client.WaitForReadiness(executionContext, 0, 0); readinessError != nil {
		return nil, fmt.Errorf(readinessErrorTemplateConstant, readinessError)
	}

	return &giteaClientAdapter{client: client}, nil
}

func (adapter *giteaClientAdapter) EnsureOrganization(executionContext context.Context, organizationName string) error {
	return adapter.client.EnsureOrganization(executionContext, organizationName)
}

func (adapter *giteaClientAdapter) EnsureRepository(executionContext context.Context, organizationName string, repositoryName string, privateRepository bool) error {
	return adapter.client.EnsureRepository(executionContext, organizationName, repositoryName, privateRepository)
}

func (adapter *giteaClientAdapter) GetRepository(executionContext context.Context, organizationName string, repositoryName string) (RepositoryMetadata, error) {
	repositoryMetadata, retrievalError := adapter.client.GetRepository(executionContext, organizationName, repositoryName)
	if retrievalError != nil {
		return RepositoryMetadata{}, retrievalError
	}
	return RepositoryMetadata{
		DefaultBranch: repositoryMetadata.DefaultBranch,
		CloneURL:      repositoryMetadata.CloneURL,
		SSHURL:        repositoryMetadata.SSHURL,
	}, nil
}

func (adapter *giteaClientAdapter) BranchExists(executionContext context.Context, organizationName string, repositoryName string, branchName string) (bool, error) {
	return adapter.client.BranchExists(executionContext, organizationName, repositoryName, branchName)
}

func (adapter *giteaClientAdapter) ProtectBranch(executionContext context.Context, organizationName string, repositoryName string, branchName string) error {
	return adapter.client.ProtectBranch(executionContext, organizationName, repositoryName, branchName)
}

func (adapter *giteaClientAdapter) RemoveBranchProtections(executionContext context.Context, organizationName string, repositoryName string, branchName string) error {
	return adapter.client.RemoveBranchProtections(executionContext, organizationName, repositoryName, branchName)
}
