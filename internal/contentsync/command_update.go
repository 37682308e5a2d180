package contentsync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/contentforge/vcsync/internal/gitrepo"
)

const (
	updateCommandUseConstant              = "update"
	updateCommandShortDescriptionConstant = "Merge a pristine content branch into a customer branch"
	updateCommandLongDescriptionConstant  = "update fetches the repository, resolves the customer branch from existing version branches or creates an integration branch from the most recent predecessor, merges the pristine branch into it, and force-pushes the result."
	updateExecutionErrorTemplateConstant  = "content update failed: %w"
	pristineBranchFlagNameConstant        = "pristine-branch"
	pristineBranchFlagUsageConstant       = "Pristine branch holding the upstream content to merge"
	customerBranchFlagNameConstant        = "customer-branch"
	customerBranchFlagUsageConstant       = "Customer branch receiving the merge"
	updateCompletedLogMessageConstant     = "Content update completed"
	mergedBranchFieldConstant             = "merged_branch"
	integrationCreatedFieldConstant       = "integration_branch_created"
)

// UpdateCommandBuilder assembles the update Cobra command.
type UpdateCommandBuilder struct {
	LoggerProvider               LoggerProvider
	Executor                     CommandExecutor
	GiteaClient                  GiteaOperations
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() UpdateConfiguration
}

// Build constructs the update command.
func (builder *UpdateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           updateCommandUseConstant,
		Short:         updateCommandShortDescriptionConstant,
		Long:          updateCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runUpdate,
	}

	command.Flags().String(pristineBranchFlagNameConstant, "", pristineBranchFlagUsageConstant)
	command.Flags().String(customerBranchFlagNameConstant, "", customerBranchFlagUsageConstant)

	return command, nil
}

func (builder *UpdateCommandBuilder) runUpdate(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	applyUpdateFlagOverrides(command, &configuration)

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

	giteaClient, clientError := builder.resolveGiteaClient(command, configuration, logger)
	if clientError != nil {
		return clientError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:            logger,
		RepositoryManager: repositoryManager,
		GiteaClient:       giteaClient,
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

	updateResult, updateError := service.ExecuteUpdate(command.Context(), UpdateOptions{
		RepositoryPath: repositoryPath,
		CloneURL:       cloneURL,
		BranchPrefix:   configuration.BranchPrefix(),
		PristineBranch: configuration.PristineBranch,
		CustomerBranch: configuration.CustomerBranch,
	})
	if updateError != nil {
		return fmt.Errorf(updateExecutionErrorTemplateConstant, updateError)
	}

	logger.Info(
		updateCompletedLogMessageConstant,
		zap.String(mergedBranchFieldConstant, updateResult.MergedBranch),
		zap.String(headCommitFieldConstant, updateResult.HeadCommit),
		zap.Bool(integrationCreatedFieldConstant, updateResult.IntegrationBranchCreated),
	)

	return nil
}

func (builder *UpdateCommandBuilder) resolveConfiguration() UpdateConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultUpdateConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *UpdateCommandBuilder) resolveGiteaClient(command *cobra.Command, configuration UpdateConfiguration, logger *zap.Logger) (GiteaOperations, error) {
	if builder.GiteaClient != nil {
		return builder.GiteaClient, nil
	}

	return newGiteaClientAdapter(command.Context(), giteaClientParameters{
		apiBaseURL: configuration.APIBaseURL(),
		username:   configuration.GiteaUsername,
		password:   configuration.GiteaPassword,
		userAgent:  fmt.Sprintf(userAgentTemplateConstant, configuration.ProductName, configuration.ProductVersion),
	}, logger)
}

func applyUpdateFlagOverrides(command *cobra.Command, configuration *UpdateConfiguration) {
	if command == nil {
		return
	}
	if command.Flags().Changed(pristineBranchFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(pristineBranchFlagNameConstant)
		configuration.PristineBranch = strings.TrimSpace(flagValue)
	}
	if command.Flags().Changed(customerBranchFlagNameConstant) {
		flagValue, _ := command.Flags().GetString(customerBranchFlagNameConstant)
		configuration.CustomerBranch = strings.TrimSpace(flagValue)
	}
}
