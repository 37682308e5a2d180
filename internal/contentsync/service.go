package contentsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/copy"
	"go.uber.org/zap"

	"github.com/contentforge/vcsync/internal/gitrepo"
	"github.com/contentforge/vcsync/internal/versions"
)

const (
	repositoryManagerMissingMessageConstant = "repository manager not configured"
	giteaClientMissingMessageConstant       = "gitea client not configured"
	remoteNameConstant                      = "origin"
	remoteReferencePrefixConstant           = "origin/"
	committerEmailTemplateConstant          = "%s@%s"
	committerNameTemplateConstant           = "%s - vcsync"
	commitMessageTemplateConstant           = "Import of %q product version %s"
	userEmailConfigurationKeyConstant       = "user.email"
	userNameConfigurationKeyConstant        = "user.name"
	readinessErrorTemplateConstant          = "gitea API readiness check failed: %w"
	organizationErrorTemplateConstant       = "unable to ensure organization: %w"
	repositoryErrorTemplateConstant         = "unable to ensure repository: %w"
	metadataErrorTemplateConstant           = "unable to retrieve repository metadata: %w"
	cloneErrorTemplateConstant              = "unable to clone repository: %w"
	scanErrorTemplateConstant               = "unable to list remote branches: %v"
	baseResolutionErrorTemplateConstant     = "unable to resolve base branch: %w"
	branchProbeErrorTemplateConstant        = "unable to probe target branch: %w"
	contentCopyErrorTemplateConstant        = "unable to copy content into working tree: %w"
	customerResolutionErrorTemplateConstant = "unable to resolve customer branch: %w"
	emptyTargetBranchLogMessageConstant     = "Target branch has no tracked files"
	zeroChangeCommitLogMessageConstant      = "No changes detected, pushing branch anyway"
	baseBranchResolvedLogMessageConstant    = "Resolved base branch"
	targetBranchSkippedLogMessageConstant   = "Target branch already exists, skipping content import"
	customerBranchResolvedLogMessage        = "Resolved customer branch"
	integrationBranchLogMessageConstant     = "Creating integration branch from predecessor"
	baseBranchFieldConstant                 = "base_branch"
	targetBranchFieldConstant               = "target_branch"
	customerBranchFieldConstant             = "customer_branch"
	integrationBranchFieldConstant          = "integration_branch"
	resolutionKindFieldConstant             = "resolution_kind"
)

var (
	errRepositoryManagerMissing = errors.New(repositoryManagerMissingMessageConstant)
	errGiteaClientMissing       = errors.New(giteaClientMissingMessageConstant)
)

// ScanError reports a transport or process failure while listing remote branches.
type ScanError struct {
	Cause error
}

// Error describes the scan failure.
func (scanError ScanError) Error() string {
	return fmt.Sprintf(scanErrorTemplateConstant, scanError.Cause)
}

// Unwrap exposes the underlying failure.
func (scanError ScanError) Unwrap() error {
	return scanError.Cause
}

// RepositoryOperations describes the git capability the synchronizer consumes.
type RepositoryOperations interface {
	CloneRepository(executionContext context.Context, cloneURL string, destinationPath string) error
	ListRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error)
	CheckoutBranch(executionContext context.Context, repositoryPath string, branchName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string, startPoint string) error
	FetchAllRemotes(executionContext context.Context, repositoryPath string) error
	MergeBranch(executionContext context.Context, repositoryPath string, branchName string) error
	RemoveAllTrackedFiles(executionContext context.Context, repositoryPath string) error
	StageAllChanges(executionContext context.Context, repositoryPath string) error
	SetLocalConfiguration(executionContext context.Context, repositoryPath string, configurationKey string, configurationValue string) error
	CreateCommit(executionContext context.Context, repositoryPath string, commitMessage string) error
	PushBranch(executionContext context.Context, repositoryPath string, remoteName string, branchName string, forcePush bool) error
	ResolveHeadCommit(executionContext context.Context, repositoryPath string) (string, error)
}

// GiteaOperations describes the remote service capability the synchronizer consumes.
type GiteaOperations interface {
	EnsureOrganization(executionContext context.Context, organizationName string) error
	EnsureRepository(executionContext context.Context, organizationName string, repositoryName string, privateRepository bool) error
	GetRepository(executionContext context.Context, organizationName string, repositoryName string) (RepositoryMetadata, error)
	BranchExists(executionContext context.Context, organizationName string, repositoryName string, branchName string) (bool, error)
	ProtectBranch(executionContext context.Context, organizationName string, repositoryName string, branchName string) error
	RemoveBranchProtections(executionContext context.Context, organizationName string, repositoryName string, branchName string) error
}

// RepositoryMetadata mirrors the repository fields the flows consume.
type RepositoryMetadata struct {
	DefaultBranch string
	CloneURL      string
	SSHURL        string
}

// ContentCopier copies a content directory over a working tree, overwriting
// existing paths and leaving unrelated paths in place.
type ContentCopier func(sourceDirectory string, destinationDirectory string) error

// ServiceDependencies describes required collaborators for synchronization.
type ServiceDependencies struct {
	Logger            *zap.Logger
	RepositoryManager RepositoryOperations
	GiteaClient       GiteaOperations
	ContentCopier     ContentCopier
	RecordsWriter     *RecordsWriter
}

// ImportOptions configures a content import run.
type ImportOptions struct {
	RepositoryPath      string
	CloneURL            string
	ProductName         string
	ProductVersion      string
	OrganizationName    string
	RepositoryName      string
	BranchPrefix        string
	TargetBranch        string
	RequestedBaseBranch string
	ContentDirectory    string
	CommitterUser       string
	PrivateRepository   bool
	ForceExistingBranch bool
	ProtectBranch       bool
	RecordsPath         string
}

// ImportResult captures the observable outcome of an import run.
type ImportResult struct {
	Resolution     ResolutionResult
	TargetBranch   string
	HeadCommit     string
	ContentUpdated bool
}

// UpdateOptions configures a pristine-into-customer merge run.
type UpdateOptions struct {
	RepositoryPath string
	CloneURL       string
	BranchPrefix   string
	PristineBranch string
	CustomerBranch string
}

// UpdateResult captures the observable outcome of an update run.
type UpdateResult struct {
	Resolution               ResolutionResult
	MergedBranch             string
	HeadCommit               string
	IntegrationBranchCreated bool
}

// Service orchestrates the import and update synchronization flows.
type Service struct {
	logger            *zap.Logger
	repositoryManager RepositoryOperations
	giteaClient       GiteaOperations
	contentCopier     ContentCopier
	recordsWriter     *RecordsWriter
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.RepositoryManager == nil {
		return nil, errRepositoryManagerMissing
	}
	if dependencies.GiteaClient == nil {
		return nil, errGiteaClientMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	contentCopier := dependencies.ContentCopier
	if contentCopier == nil {
		contentCopier = defaultContentCopier
	}

	recordsWriter := dependencies.RecordsWriter
	if recordsWriter == nil {
		recordsWriter = NewRecordsWriter(logger)
	}

	return &Service{
		logger:            logger,
		repositoryManager: dependencies.RepositoryManager,
		giteaClient:       dependencies.GiteaClient,
		contentCopier:     contentCopier,
		recordsWriter:     recordsWriter,
	}, nil
}

// ExecuteImport provisions the repository, resolves the base branch, and
// replaces the target branch's content from the content directory. An existing
// target branch is left untouched unless the options force a re-import.
func (service *Service) ExecuteImport(executionContext context.Context, options ImportOptions) (ImportResult, error) {
	if organizationError := service.giteaClient.EnsureOrganization(executionContext, options.OrganizationName); organizationError != nil {
		return ImportResult{}, fmt.Errorf(organizationErrorTemplateConstant, organizationError)
	}
	if repositoryError := service.giteaClient.EnsureRepository(executionContext, options.OrganizationName, options.RepositoryName, options.PrivateRepository); repositoryError != nil {
		return ImportResult{}, fmt.Errorf(repositoryErrorTemplateConstant, repositoryError)
	}

	repositoryMetadata, metadataError := service.giteaClient.GetRepository(executionContext, options.OrganizationName, options.RepositoryName)
	if metadataError != nil {
		return ImportResult{}, fmt.Errorf(metadataErrorTemplateConstant, metadataError)
	}

	if cloneError := service.repositoryManager.CloneRepository(executionContext, options.CloneURL, options.RepositoryPath); cloneError != nil {
		return ImportResult{}, fmt.Errorf(cloneErrorTemplateConstant, cloneError)
	}

	scannedReferences, scanError := service.scanBranchReferences(executionContext, options.RepositoryPath, options.BranchPrefix)
	if scanError != nil {
		return ImportResult{}, scanError
	}

	targetBranchExists, probeError := service.giteaClient.BranchExists(executionContext, options.OrganizationName, options.RepositoryName, options.TargetBranch)
	if probeError != nil {
		return ImportResult{}, fmt.Errorf(branchProbeErrorTemplateConstant, probeError)
	}

	if targetBranchExists && !options.ForceExistingBranch {
		service.logger.Info(targetBranchSkippedLogMessageConstant, zap.String(targetBranchFieldConstant, options.TargetBranch))
		if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, options.RepositoryPath, options.TargetBranch); checkoutError != nil {
			return ImportResult{}, checkoutError
		}
		headCommit, headError := service.repositoryManager.ResolveHeadCommit(executionContext, options.RepositoryPath)
		if headError != nil {
			return ImportResult{}, headError
		}

		importResult := ImportResult{Resolution: ResolveTargetBranch(scannedReferences, options.TargetBranch), TargetBranch: options.TargetBranch, HeadCommit: headCommit}
		service.writeImportRecord(repositoryMetadata, importResult, options.RecordsPath)
		return importResult, nil
	}

	// A forced re-import resolves its base among the other branches; the
	// target's own ref would otherwise register as a version conflict.
	baseCandidates := scannedReferences
	if targetBranchExists {
		baseCandidates = versions.ExcludeBranch(scannedReferences, options.TargetBranch)
	}

	baseResolution, resolutionError := ResolveBaseBranch(baseCandidates, options.RequestedBaseBranch, options.ProductVersion, repositoryMetadata.DefaultBranch)
	if resolutionError != nil {
		return ImportResult{}, fmt.Errorf(baseResolutionErrorTemplateConstant, resolutionError)
	}
	service.logger.Info(
		baseBranchResolvedLogMessageConstant,
		zap.String(baseBranchFieldConstant, baseResolution.Branch.StrippedName),
		zap.Int(resolutionKindFieldConstant, int(baseResolution.Kind)),
	)

	if protectionError := service.giteaClient.RemoveBranchProtections(executionContext, options.OrganizationName, options.RepositoryName, options.TargetBranch); protectionError != nil {
		return ImportResult{}, protectionError
	}

	commitMessage := fmt.Sprintf(commitMessageTemplateConstant, options.ProductName, options.ProductVersion)
	headCommit, replaceError := service.replaceContent(executionContext, replaceRequest{
		repositoryPath:   options.RepositoryPath,
		baseBranch:       baseResolution.Branch.StrippedName,
		targetBranch:     options.TargetBranch,
		contentDirectory: options.ContentDirectory,
		commitMessage:    commitMessage,
		committerUser:    options.CommitterUser,
	})
	if replaceError != nil {
		return ImportResult{}, replaceError
	}

	if options.ProtectBranch {
		if protectionError := service.giteaClient.ProtectBranch(executionContext, options.OrganizationName, options.RepositoryName, options.TargetBranch); protectionError != nil {
			return ImportResult{}, protectionError
		}
	}

	importResult := ImportResult{Resolution: baseResolution, TargetBranch: options.TargetBranch, HeadCommit: headCommit, ContentUpdated: true}
	service.writeImportRecord(repositoryMetadata, importResult, options.RecordsPath)
	return importResult, nil
}

// ExecuteUpdate merges the pristine branch into the customer branch. When no
// exact customer branch exists, a transient integration branch is created from
// the most recent predecessor and receives the merge instead.
func (service *Service) ExecuteUpdate(executionContext context.Context, options UpdateOptions) (UpdateResult, error) {
	if cloneError := service.repositoryManager.CloneRepository(executionContext, options.CloneURL, options.RepositoryPath); cloneError != nil {
		return UpdateResult{}, fmt.Errorf(cloneErrorTemplateConstant, cloneError)
	}
	if fetchError := service.repositoryManager.FetchAllRemotes(executionContext, options.RepositoryPath); fetchError != nil {
		return UpdateResult{}, fetchError
	}

	scannedReferences, scanError := service.scanBranchReferences(executionContext, options.RepositoryPath, options.BranchPrefix)
	if scanError != nil {
		return UpdateResult{}, scanError
	}

	customerResolution, resolutionError := ResolveCustomerBranch(scannedReferences, options.CustomerBranch)
	if resolutionError != nil {
		return UpdateResult{}, fmt.Errorf(customerResolutionErrorTemplateConstant, resolutionError)
	}
	service.logger.Info(
		customerBranchResolvedLogMessage,
		zap.String(customerBranchFieldConstant, customerResolution.Branch.StrippedName),
		zap.Int(resolutionKindFieldConstant, int(customerResolution.Kind)),
	)

	mergeTargetBranch := customerResolution.Branch.StrippedName
	integrationBranchCreated := false
	if customerResolution.Kind == ResolutionGuessed {
		integrationBranch, integrationError := service.createIntegrationBranch(executionContext, options.RepositoryPath, customerResolution.Branch)
		if integrationError != nil {
			return UpdateResult{}, integrationError
		}
		mergeTargetBranch = integrationBranch
		integrationBranchCreated = true
	}

	headCommit, mergeError := service.mergeContent(executionContext, mergeRequest{
		repositoryPath:    options.RepositoryPath,
		branchPrefix:      options.BranchPrefix,
		pristineBranch:    options.PristineBranch,
		mergeTargetBranch: mergeTargetBranch,
	})
	if mergeError != nil {
		return UpdateResult{}, mergeError
	}

	return UpdateResult{
		Resolution:               customerResolution,
		MergedBranch:             mergeTargetBranch,
		HeadCommit:               headCommit,
		IntegrationBranchCreated: integrationBranchCreated,
	}, nil
}

type replaceRequest struct {
	repositoryPath   string
	baseBranch       string
	targetBranch     string
	contentDirectory string
	commitMessage    string
	committerUser    string
}

// replaceContent drives the replace-mode sequence: base checkout, target
// creation, tracked-file removal, content copy, stage, commit, force push.
// An empty base and a zero-change commit are both tolerated; the branch is
// pushed either way so the remote ref exists at the expected base.
func (service *Service) replaceContent(executionContext context.Context, request replaceRequest) (string, error) {
	if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, request.repositoryPath, request.baseBranch); checkoutError != nil {
		return "", checkoutError
	}
	if creationError := service.repositoryManager.CreateBranch(executionContext, request.repositoryPath, request.targetBranch, ""); creationError != nil {
		return "", creationError
	}

	if removalError := service.repositoryManager.RemoveAllTrackedFiles(executionContext, request.repositoryPath); removalError != nil {
		if !errors.Is(removalError, gitrepo.ErrNoFilesMatched) {
			return "", removalError
		}
		service.logger.Info(emptyTargetBranchLogMessageConstant, zap.String(targetBranchFieldConstant, request.targetBranch))
	}

	if copyError := service.contentCopier(request.contentDirectory, request.repositoryPath); copyError != nil {
		return "", fmt.Errorf(contentCopyErrorTemplateConstant, copyError)
	}

	if stageError := service.repositoryManager.StageAllChanges(executionContext, request.repositoryPath); stageError != nil {
		return "", stageError
	}

	committerEmail := fmt.Sprintf(committerEmailTemplateConstant, request.committerUser, request.committerUser)
	if configurationError := service.repositoryManager.SetLocalConfiguration(executionContext, request.repositoryPath, userEmailConfigurationKeyConstant, committerEmail); configurationError != nil {
		return "", configurationError
	}
	committerName := fmt.Sprintf(committerNameTemplateConstant, request.committerUser)
	if configurationError := service.repositoryManager.SetLocalConfiguration(executionContext, request.repositoryPath, userNameConfigurationKeyConstant, committerName); configurationError != nil {
		return "", configurationError
	}

	if commitError := service.repositoryManager.CreateCommit(executionContext, request.repositoryPath, request.commitMessage); commitError != nil {
		if !errors.Is(commitError, gitrepo.ErrNothingToCommit) {
			return "", commitError
		}
		service.logger.Info(zeroChangeCommitLogMessageConstant, zap.String(targetBranchFieldConstant, request.targetBranch))
	}

	if pushError := service.repositoryManager.PushBranch(executionContext, request.repositoryPath, remoteNameConstant, request.targetBranch, true); pushError != nil {
		return "", pushError
	}

	return service.repositoryManager.ResolveHeadCommit(executionContext, request.repositoryPath)
}

type mergeRequest struct {
	repositoryPath    string
	branchPrefix      string
	pristineBranch    string
	mergeTargetBranch string
}

// mergeContent drives the merge-mode sequence: pristine checkout from its
// remote ref, target checkout, merge, force push. Conflicts surface as
// gitrepo.MergeConflictError and abort the run.
func (service *Service) mergeContent(executionContext context.Context, request mergeRequest) (string, error) {
	pristineRemoteReference := remoteReferencePrefixConstant + request.branchPrefix + request.pristineBranch
	if checkoutError := service.repositoryManager.CreateBranch(executionContext, request.repositoryPath, request.pristineBranch, pristineRemoteReference); checkoutError != nil {
		return "", checkoutError
	}
	if checkoutError := service.repositoryManager.CheckoutBranch(executionContext, request.repositoryPath, request.mergeTargetBranch); checkoutError != nil {
		return "", checkoutError
	}
	if mergeError := service.repositoryManager.MergeBranch(executionContext, request.repositoryPath, request.pristineBranch); mergeError != nil {
		return "", mergeError
	}
	if pushError := service.repositoryManager.PushBranch(executionContext, request.repositoryPath, remoteNameConstant, request.mergeTargetBranch, true); pushError != nil {
		return "", pushError
	}

	return service.repositoryManager.ResolveHeadCommit(executionContext, request.repositoryPath)
}

// createIntegrationBranch checks the predecessor out from its remote ref and
// force-creates the integration branch on top of it.
func (service *Service) createIntegrationBranch(executionContext context.Context, repositoryPath string, predecessor versions.BranchRef) (string, error) {
	if checkoutError := service.repositoryManager.CreateBranch(executionContext, repositoryPath, predecessor.StrippedName, predecessor.FullName); checkoutError != nil {
		return "", checkoutError
	}

	integrationBranch := IntegrationBranchName(predecessor.StrippedName)
	service.logger.Info(
		integrationBranchLogMessageConstant,
		zap.String(customerBranchFieldConstant, predecessor.StrippedName),
		zap.String(integrationBranchFieldConstant, integrationBranch),
	)
	if creationError := service.repositoryManager.CreateBranch(executionContext, repositoryPath, integrationBranch, predecessor.StrippedName); creationError != nil {
		return "", creationError
	}

	return integrationBranch, nil
}

func (service *Service) scanBranchReferences(executionContext context.Context, repositoryPath string, branchPrefix string) ([]versions.BranchRef, error) {
	referenceNames, listError := service.repositoryManager.ListRemoteBranches(executionContext, repositoryPath)
	if listError != nil {
		return nil, ScanError{Cause: listError}
	}
	return versions.ScanBranchReferences(referenceNames, branchPrefix), nil
}

func (service *Service) writeImportRecord(repositoryMetadata RepositoryMetadata, importResult ImportResult, recordsPath string) {
	if len(recordsPath) == 0 {
		return
	}
	service.recordsWriter.Write(recordsPath, ImportRecord{
		CloneURL:     repositoryMetadata.CloneURL,
		ImportBranch: importResult.TargetBranch,
		SSHURL:       repositoryMetadata.SSHURL,
		Commit:       importResult.HeadCommit,
	})
}

func defaultContentCopier(sourceDirectory string, destinationDirectory string) error {
	return copy.Copy(sourceDirectory, destinationDirectory, copy.Options{
		OnDirExists: func(sourcePath string, destinationPath string) copy.DirExistsAction {
			return copy.Merge
		},
	})
}
