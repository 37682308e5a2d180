package contentsync

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	requiredParameterErrorTemplateConstant = "required parameter %q is missing or empty"
	apiPathSuffixConstant                  = "/api/v1"
	repositoryNameSuffixConstant           = "-config-management"
	gitRepositorySuffixConstant            = ".git"
	branchSegmentSeparatorConstant         = "/"
	previousVersionBaseSentinelConstant    = "semver_previous_if_exists"
	defaultOrganizationNameConstant        = "cray"
	defaultGiteaUsernameConstant           = "crayvcs"
	defaultContentDirectoryConstant        = "/content"
	defaultRecordsPathConstant             = "/results/records.yaml"
	productNameParameterConstant           = "product_name"
	productVersionParameterConstant        = "product_version"
	giteaURLParameterConstant              = "gitea_url"
	giteaPasswordParameterConstant         = "gitea_password"
	pristineBranchParameterConstant        = "pristine_branch"
	customerBranchParameterConstant        = "customer_branch"
	cloneURLErrorTemplateConstant          = "unable to build clone URL from %q: %w"
)

// RequiredParameterError reports a configuration field that must be present and non-empty.
type RequiredParameterError struct {
	ParameterName string
}

// Error names the missing parameter.
func (parameterError RequiredParameterError) Error() string {
	return fmt.Sprintf(requiredParameterErrorTemplateConstant, parameterError.ParameterName)
}

// ImportConfiguration captures persisted configuration for the import command.
type ImportConfiguration struct {
	ProductName         string `mapstructure:"product_name"`
	ProductVersion      string `mapstructure:"product_version"`
	GiteaBaseURL        string `mapstructure:"gitea_url"`
	GiteaUsername       string `mapstructure:"gitea_user"`
	GiteaPassword       string `mapstructure:"gitea_password"`
	GiteaOrganization   string `mapstructure:"gitea_org"`
	RepositoryName      string `mapstructure:"gitea_repo"`
	ContentDirectory    string `mapstructure:"content_dir"`
	BaseBranch          string `mapstructure:"base_branch"`
	ForceExistingBranch bool   `mapstructure:"force_existing_branch"`
	ProtectBranch       bool   `mapstructure:"protect_branch"`
	PrivateRepository   bool   `mapstructure:"private_repo"`
	RecordsPath         string `mapstructure:"records_path"`
	WorkingDirectory    string `mapstructure:"workdir"`
	EnableDebugLogging  bool   `mapstructure:"debug"`
}

// DefaultImportConfiguration returns baseline configuration values for the import command.
func DefaultImportConfiguration() ImportConfiguration {
	return ImportConfiguration{
		GiteaUsername:     defaultGiteaUsernameConstant,
		GiteaOrganization: defaultOrganizationNameConstant,
		ContentDirectory:  defaultContentDirectoryConstant,
		BaseBranch:        previousVersionBaseSentinelConstant,
		ProtectBranch:     true,
		PrivateRepository: true,
		RecordsPath:       defaultRecordsPathConstant,
	}
}

// Sanitize trims configured string values.
func (configuration ImportConfiguration) Sanitize() ImportConfiguration {
	sanitized := configuration
	sanitized.ProductName = strings.TrimSpace(configuration.ProductName)
	sanitized.ProductVersion = strings.TrimSpace(configuration.ProductVersion)
	sanitized.GiteaBaseURL = strings.TrimSpace(configuration.GiteaBaseURL)
	sanitized.GiteaUsername = strings.TrimSpace(configuration.GiteaUsername)
	sanitized.GiteaPassword = strings.TrimSpace(configuration.GiteaPassword)
	sanitized.GiteaOrganization = strings.TrimSpace(configuration.GiteaOrganization)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)
	sanitized.ContentDirectory = strings.TrimSpace(configuration.ContentDirectory)
	sanitized.BaseBranch = strings.TrimSpace(configuration.BaseBranch)
	sanitized.RecordsPath = strings.TrimSpace(configuration.RecordsPath)
	sanitized.WorkingDirectory = strings.TrimSpace(configuration.WorkingDirectory)
	return sanitized
}

// Validate confirms every required parameter carries a value.
func (configuration ImportConfiguration) Validate() error {
	requiredParameters := []struct {
		parameterName  string
		parameterValue string
	}{
		{parameterName: productNameParameterConstant, parameterValue: configuration.ProductName},
		{parameterName: productVersionParameterConstant, parameterValue: configuration.ProductVersion},
		{parameterName: giteaURLParameterConstant, parameterValue: configuration.GiteaBaseURL},
		{parameterName: giteaPasswordParameterConstant, parameterValue: configuration.GiteaPassword},
	}

	for _, requiredParameter := range requiredParameters {
		if len(strings.TrimSpace(requiredParameter.parameterValue)) == 0 {
			return RequiredParameterError{ParameterName: requiredParameter.parameterName}
		}
	}

	return nil
}

// ResolvedRepositoryName returns the configured repository name or the
// conventional product-derived default.
func (configuration ImportConfiguration) ResolvedRepositoryName() string {
	if len(configuration.RepositoryName) > 0 {
		return configuration.RepositoryName
	}
	return configuration.ProductName + repositoryNameSuffixConstant
}

// TargetBranch returns the version-named branch the import publishes.
func (configuration ImportConfiguration) TargetBranch() string {
	return strings.Join([]string{configuration.GiteaOrganization, configuration.ProductName, configuration.ProductVersion}, branchSegmentSeparatorConstant)
}

// BranchPrefix returns the namespace under which version branches live.
func (configuration ImportConfiguration) BranchPrefix() string {
	return strings.Join([]string{configuration.GiteaOrganization, configuration.ProductName}, branchSegmentSeparatorConstant) + branchSegmentSeparatorConstant
}

// APIBaseURL returns the Gitea REST API root derived from the base URL.
func (configuration ImportConfiguration) APIBaseURL() string {
	return strings.TrimRight(configuration.GiteaBaseURL, branchSegmentSeparatorConstant) + apiPathSuffixConstant
}

// CloneURL returns the authenticated clone URL for the configured repository.
func (configuration ImportConfiguration) CloneURL() (string, error) {
	return buildCloneURL(configuration.GiteaBaseURL, configuration.GiteaUsername, configuration.GiteaPassword, configuration.GiteaOrganization, configuration.ResolvedRepositoryName())
}

// UpdateConfiguration captures persisted configuration for the update command.
type UpdateConfiguration struct {
	ProductName        string `mapstructure:"product_name"`
	ProductVersion     string `mapstructure:"product_version"`
	GiteaBaseURL       string `mapstructure:"gitea_url"`
	GiteaUsername      string `mapstructure:"gitea_user"`
	GiteaPassword      string `mapstructure:"gitea_password"`
	GiteaOrganization  string `mapstructure:"gitea_org"`
	RepositoryName     string `mapstructure:"gitea_repo"`
	PristineBranch     string `mapstructure:"pristine_branch"`
	CustomerBranch     string `mapstructure:"customer_branch"`
	WorkingDirectory   string `mapstructure:"workdir"`
	EnableDebugLogging bool   `mapstructure:"debug"`
}

// DefaultUpdateConfiguration returns baseline configuration values for the update command.
func DefaultUpdateConfiguration() UpdateConfiguration {
	return UpdateConfiguration{
		GiteaUsername:     defaultGiteaUsernameConstant,
		GiteaOrganization: defaultOrganizationNameConstant,
	}
}

// Sanitize trims configured string values.
func (configuration UpdateConfiguration) Sanitize() UpdateConfiguration {
	sanitized := configuration
	sanitized.ProductName = strings.TrimSpace(configuration.ProductName)
	sanitized.ProductVersion = strings.TrimSpace(configuration.ProductVersion)
	sanitized.GiteaBaseURL = strings.TrimSpace(configuration.GiteaBaseURL)
	sanitized.GiteaUsername = strings.TrimSpace(configuration.GiteaUsername)
	sanitized.GiteaPassword = strings.TrimSpace(configuration.GiteaPassword)
	sanitized.GiteaOrganization = strings.TrimSpace(configuration.GiteaOrganization)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)
	sanitized.PristineBranch = strings.TrimSpace(configuration.PristineBranch)
	sanitized.CustomerBranch = strings.TrimSpace(configuration.CustomerBranch)
	sanitized.WorkingDirectory = strings.TrimSpace(configuration.WorkingDirectory)
	return sanitized
}

// Validate confirms every required parameter carries a value.
func (configuration UpdateConfiguration) Validate() error {
	requiredParameters := []struct {
		parameterName  string
		parameterValue string
	}{
		{parameterName: productNameParameterConstant, parameterValue: configuration.ProductName},
		{parameterName: productVersionParameterConstant, parameterValue: configuration.ProductVersion},
		{parameterName: giteaURLParameterConstant, parameterValue: configuration.GiteaBaseURL},
		{parameterName: giteaPasswordParameterConstant, parameterValue: configuration.GiteaPassword},
		{parameterName: pristineBranchParameterConstant, parameterValue: configuration.PristineBranch},
		{parameterName: customerBranchParameterConstant, parameterValue: configuration.CustomerBranch},
	}

	for _, requiredParameter := range requiredParameters {
		if len(strings.TrimSpace(requiredParameter.parameterValue)) == 0 {
			return RequiredParameterError{ParameterName: requiredParameter.parameterName}
		}
	}

	return nil
}

// ResolvedRepositoryName returns the configured repository name or the
// conventional product-derived default.
func (configuration UpdateConfiguration) ResolvedRepositoryName() string {
	if len(configuration.RepositoryName) > 0 {
		return configuration.RepositoryName
	}
	return configuration.ProductName + repositoryNameSuffixConstant
}

// BranchPrefix returns the namespace under which version branches live.
func (configuration UpdateConfiguration) BranchPrefix() string {
	return strings.Join([]string{configuration.GiteaOrganization, configuration.ProductName}, branchSegmentSeparatorConstant) + branchSegmentSeparatorConstant
}

// APIBaseURL returns the Gitea REST API root derived from the base URL.
func (configuration UpdateConfiguration) APIBaseURL() string {
	return strings.TrimRight(configuration.GiteaBaseURL, branchSegmentSeparatorConstant) + apiPathSuffixConstant
}

// CloneURL returns the authenticated clone URL for the configured repository.
func (configuration UpdateConfiguration) CloneURL() (string, error) {
	return buildCloneURL(configuration.GiteaBaseURL, configuration.GiteaUsername, configuration.GiteaPassword, configuration.GiteaOrganization, configuration.ResolvedRepositoryName())
}

// DefaultImportConfigurationValues returns viper defaults for the import
// command keyed beneath the supplied configuration prefix.
func DefaultImportConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaultConfiguration := DefaultImportConfiguration()
	return map[string]any{
		configurationKeyPrefix + ".gitea_user":     defaultConfiguration.GiteaUsername,
		configurationKeyPrefix + ".gitea_org":      defaultConfiguration.GiteaOrganization,
		configurationKeyPrefix + ".content_dir":    defaultConfiguration.ContentDirectory,
		configurationKeyPrefix + ".base_branch":    defaultConfiguration.BaseBranch,
		configurationKeyPrefix + ".protect_branch": defaultConfiguration.ProtectBranch,
		configurationKeyPrefix + ".private_repo":   defaultConfiguration.PrivateRepository,
		configurationKeyPrefix + ".records_path":   defaultConfiguration.RecordsPath,
	}
}

// DefaultUpdateConfigurationValues returns viper defaults for the update
// command keyed beneath the supplied configuration prefix.
func DefaultUpdateConfigurationValues(configurationKeyPrefix string) map[string]any {
	defaultConfiguration := DefaultUpdateConfiguration()
	return map[string]any{
		configurationKeyPrefix + ".gitea_user": defaultConfiguration.GiteaUsername,
		configurationKeyPrefix + ".gitea_org":  defaultConfiguration.GiteaOrganization,
	}
}

func buildCloneURL(baseURL string, username string, password string, organizationName string, repositoryName string) (string, error) {
	parsedURL, parseError := url.Parse(strings.TrimRight(baseURL, branchSegmentSeparatorConstant))
	if parseError != nil {
		return "", fmt.Errorf(cloneURLErrorTemplateConstant, baseURL, parseError)
	}

	parsedURL.User = url.UserPassword(username, password)
	parsedURL.Path = parsedURL.Path + branchSegmentSeparatorConstant + organizationName + branchSegmentSeparatorConstant + repositoryName + gitRepositorySuffixConstant
	return parsedURL.String(), nil
}
