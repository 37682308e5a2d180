package giteaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const (
	baseURLNotConfiguredMessageConstant        = "gitea base URL not configured"
	organizationsPathConstant                  = "/orgs"
	organizationRepositoriesPathConstant       = "/org/"
	organizationRepositoriesSuffixConstant     = "/repos"
	repositoriesPathConstant                   = "/repos/"
	branchesPathSegmentConstant                = "/branches/"
	branchProtectionsPathSegmentConstant       = "/branch_protections"
	organizationExistsMarkerConstant           = "user already exists"
	protectionExistsMarkerConstant             = "Branch protection already exist"
	contentTypeHeaderConstant                  = "Content-Type"
	userAgentHeaderConstant                    = "User-Agent"
	jsonContentTypeConstant                    = "application/json"
	defaultRetryAttemptLimitConstant           = 50
	defaultRetryMinimumWaitConstant            = 1 * time.Second
	defaultRetryMaximumWaitConstant            = 30 * time.Second
	defaultReadinessAttemptLimitConstant       = 30
	defaultReadinessDelayConstant              = 10 * time.Second
	readinessExhaustedMessageConstant          = "gitea API did not become reachable within the attempt limit"
	waitingForServiceMessageConstant           = "Waiting for the Gitea API to respond"
	organizationExistsLogMessageConstant       = "Organization already exists"
	repositoryExistsLogMessageConstant         = "Repository already exists, aligning visibility"
	visibilityNotAppliedLogMessageConstant     = "Repository visibility was not applied"
	protectionExistsLogMessageConstant         = "Branch protection already exists, updating it"
	protectionRemovalIgnoredLogMessageConstant = "Removing branch protections failed, ignoring"
	organizationNameFieldConstant              = "organization"
	repositoryNameFieldConstant                = "repository"
	branchNameFieldConstant                    = "branch"
	statusCodeFieldConstant                    = "status_code"
	attemptFieldConstant                       = "attempt"
)

// RepositoryMetadata carries the repository fields consumed by the synchronization flows.
type RepositoryMetadata struct {
	DefaultBranch string `json:"default_branch"`
	CloneURL      string `json:"clone_url"`
	SSHURL        string `json:"ssh_url"`
}

type organizationRequest struct {
	Username string `json:"username"`
}

type repositoryRequest struct {
	AutoInitialize bool   `json:"auto_init"`
	Name           string `json:"name"`
	Private        bool   `json:"private"`
}

type repositoryVisibilityRequest struct {
	Private bool `json:"private"`
}

type branchProtectionRequest struct {
	BranchName string `json:"branch_name,omitempty"`
	EnablePush bool   `json:"enable_push"`
}

type apiMessageResponse struct {
	Message string `json:"message"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the API root including the version segment, for example https://vcs.example/api/v1.
	BaseURL string
	// Username and Password authenticate every request via HTTP basic auth.
	Username string
	Password string
	// UserAgent identifies the importing product in request headers.
	UserAgent string
	// RetryAttemptLimit bounds automatic retries of transient failures; zero selects the default.
	RetryAttemptLimit int
}

// Client issues Gitea REST API calls with retry-aware transport semantics.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	username   string
	password   string
	userAgent  string
	logger     *zap.Logger
}

// NewClient constructs a Client from the supplied options.
func NewClient(options ClientOptions, logger *zap.Logger) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, errors.New(baseURLNotConfiguredMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retryAttemptLimit := options.RetryAttemptLimit
	if retryAttemptLimit <= 0 {
		retryAttemptLimit = defaultRetryAttemptLimitConstant
	}

	retryingClient := retryablehttp.NewClient()
	retryingClient.RetryMax = retryAttemptLimit
	retryingClient.RetryWaitMin = defaultRetryMinimumWaitConstant
	retryingClient.RetryWaitMax = defaultRetryMaximumWaitConstant
	retryingClient.Logger = nil

	return &Client{
		httpClient: retryingClient,
		baseURL:    trimmedBaseURL,
		username:   options.Username,
		password:   options.Password,
		userAgent:  options.UserAgent,
		logger:     logger,
	}, nil
}

// WaitForReadiness polls the API root until it responds. A 404 counts as
// reachable because it proves the server is answering requests. Each attempt
// issues a single plain probe without transport retries, so an unreachable
// service is re-checked at the poll cadence instead of stalling inside one
// attempt. Attempts are bounded; exhausting them returns an error rather than
// blocking forever.
func (client *Client) WaitForReadiness(executionContext context.Context, attemptLimit int, attemptDelay time.Duration) error {
	if attemptLimit <= 0 {
		attemptLimit = defaultReadinessAttemptLimitConstant
	}
	if attemptDelay <= 0 {
		attemptDelay = defaultReadinessDelayConstant
	}

	for attemptNumber := 1; attemptNumber <= attemptLimit; attemptNumber++ {
		statusCode, probeError := client.probeReadiness(executionContext)
		if probeError == nil && (isSuccessStatus(statusCode) || statusCode == http.StatusNotFound) {
			return nil
		}

		client.logger.Info(waitingForServiceMessageConstant, zap.Int(attemptFieldConstant, attemptNumber))
		select {
		case <-executionContext.Done():
			return executionContext.Err()
		case <-time.After(attemptDelay):
		}
	}

	return errors.New(readinessExhaustedMessageConstant)
}

// probeReadiness issues one request through the underlying transport,
// bypassing the retry policy that governs regular API calls.
func (client *Client) probeReadiness(executionContext context.Context) (int, error) {
	probeRequest, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, client.baseURL, nil)
	if requestError != nil {
		return 0, requestError
	}
	probeRequest.SetBasicAuth(client.username, client.password)
	if len(client.userAgent) > 0 {
		probeRequest.Header.Set(userAgentHeaderConstant, client.userAgent)
	}

	probeResponse, responseError := client.httpClient.HTTPClient.Do(probeRequest)
	if responseError != nil {
		return 0, responseError
	}
	defer func() { _ = probeResponse.Body.Close() }()
	_, _ = io.Copy(io.Discard, probeResponse.Body)

	return probeResponse.StatusCode, nil
}

// EnsureOrganization creates the organization, tolerating one that already exists.
func (client *Client) EnsureOrganization(executionContext context.Context, organizationName string) error {
	requestURL := client.baseURL + organizationsPathConstant
	statusCode, responseBody, requestError := client.performRequest(executionContext, http.MethodPost, requestURL, organizationRequest{Username: organizationName})
	if requestError != nil {
		return requestError
	}
	if isSuccessStatus(statusCode) {
		return nil
	}
	if statusCode == http.StatusUnprocessableEntity && responseMessageContains(responseBody, organizationExistsMarkerConstant) {
		client.logger.Debug(organizationExistsLogMessageConstant, zap.String(organizationNameFieldConstant, organizationName))
		return nil
	}

	return UnexpectedStatusError{Method: http.MethodPost, RequestURL: requestURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
}

// EnsureRepository creates the repository under the organization, tolerating
// one that already exists. For an existing repository the requested visibility
// is applied via an update; a rejected visibility update is logged, not fatal.
func (client *Client) EnsureRepository(executionContext context.Context, organizationName string, repositoryName string, privateRepository bool) error {
	creationURL := client.baseURL + organizationRepositoriesPathConstant + organizationName + organizationRepositoriesSuffixConstant
	creationRequest := repositoryRequest{AutoInitialize: true, Name: repositoryName, Private: privateRepository}
	statusCode, responseBody, requestError := client.performRequest(executionContext, http.MethodPost, creationURL, creationRequest)
	if requestError != nil {
		return requestError
	}
	if isSuccessStatus(statusCode) {
		return nil
	}
	if statusCode != http.StatusConflict {
		return UnexpectedStatusError{Method: http.MethodPost, RequestURL: creationURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
	}

	client.logger.Debug(repositoryExistsLogMessageConstant, zap.String(repositoryNameFieldConstant, repositoryName))
	visibilityURL := client.repositoryURL(organizationName, repositoryName)
	statusCode, responseBody, requestError = client.performRequest(executionContext, http.MethodPatch, visibilityURL, repositoryVisibilityRequest{Private: privateRepository})
	if requestError != nil {
		return requestError
	}
	if statusCode == http.StatusUnprocessableEntity {
		client.logger.Warn(visibilityNotAppliedLogMessageConstant, zap.String(repositoryNameFieldConstant, repositoryName), zap.Int(statusCodeFieldConstant, statusCode))
		return nil
	}
	if !isSuccessStatus(statusCode) {
		return UnexpectedStatusError{Method: http.MethodPatch, RequestURL: visibilityURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
	}

	return nil
}

// GetRepository retrieves the repository metadata.
func (client *Client) GetRepository(executionContext context.Context, organizationName string, repositoryName string) (RepositoryMetadata, error) {
	requestURL := client.repositoryURL(organizationName, repositoryName)
	statusCode, responseBody, requestError := client.performRequest(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return RepositoryMetadata{}, requestError
	}
	if !isSuccessStatus(statusCode) {
		return RepositoryMetadata{}, UnexpectedStatusError{Method: http.MethodGet, RequestURL: requestURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
	}

	repositoryMetadata := RepositoryMetadata{}
	if unmarshalError := json.Unmarshal(responseBody, &repositoryMetadata); unmarshalError != nil {
		return RepositoryMetadata{}, unmarshalError
	}
	return repositoryMetadata, nil
}

// BranchExists probes whether the named branch exists in the repository.
// Any status besides 200 and 404 is surfaced as an error, never as absence.
func (client *Client) BranchExists(executionContext context.Context, organizationName string, repositoryName string, branchName string) (bool, error) {
	requestURL := client.repositoryURL(organizationName, repositoryName) + branchesPathSegmentConstant + url.PathEscape(branchName)
	statusCode, responseBody, requestError := client.performRequest(executionContext, http.MethodGet, requestURL, nil)
	if requestError != nil {
		return false, requestError
	}

	switch {
	case statusCode == http.StatusOK:
		return true, nil
	case statusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, UnexpectedStatusError{Method: http.MethodGet, RequestURL: requestURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
	}
}

// ProtectBranch marks the branch as protected from pushes. An existing
// protection is updated in place instead of recreated.
func (client *Client) ProtectBranch(executionContext context.Context, organizationName string, repositoryName string, branchName string) error {
	creationURL := client.repositoryURL(organizationName, repositoryName) + branchProtectionsPathSegmentConstant
	creationRequest := branchProtectionRequest{BranchName: branchName, EnablePush: false}
	statusCode, responseBody, requestError := client.performRequest(executionContext, http.MethodPost, creationURL, creationRequest)
	if requestError != nil {
		return requestError
	}
	if isSuccessStatus(statusCode) {
		return nil
	}
	if statusCode == http.StatusForbidden && responseMessageContains(responseBody, protectionExistsMarkerConstant) {
		client.logger.Debug(protectionExistsLogMessageConstant, zap.String(branchNameFieldConstant, branchName))
		updateURL := creationURL + "/" + url.PathEscape(branchName)
		statusCode, responseBody, requestError = client.performRequest(executionContext, http.MethodPatch, updateURL, branchProtectionRequest{EnablePush: false})
		if requestError != nil {
			return requestError
		}
		if !isSuccessStatus(statusCode) {
			return UnexpectedStatusError{Method: http.MethodPatch, RequestURL: updateURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
		}
		return nil
	}

	return UnexpectedStatusError{Method: http.MethodPost, RequestURL: creationURL, StatusCode: statusCode, ResponseBody: string(responseBody)}
}

// RemoveBranchProtections deletes the branch's protection if present. Failures
// are logged and swallowed so a repush of an unprotected branch proceeds.
func (client *Client) RemoveBranchProtections(executionContext context.Context, organizationName string, repositoryName string, branchName string) error {
	requestURL := client.repositoryURL(organizationName, repositoryName) + branchProtectionsPathSegmentConstant + "/" + url.PathEscape(branchName)
	statusCode, _, requestError := client.performRequest(executionContext, http.MethodDelete, requestURL, nil)
	if requestError != nil {
		return requestError
	}
	if !isSuccessStatus(statusCode) {
		client.logger.Warn(protectionRemovalIgnoredLogMessageConstant, zap.String(branchNameFieldConstant, branchName), zap.Int(statusCodeFieldConstant, statusCode))
	}
	return nil
}

func (client *Client) repositoryURL(organizationName string, repositoryName string) string {
	return client.baseURL + repositoriesPathConstant + organizationName + "/" + repositoryName
}

func (client *Client) performRequest(executionContext context.Context, httpMethod string, requestURL string, requestPayload any) (int, []byte, error) {
	var requestBody io.Reader
	if requestPayload != nil {
		encodedPayload, encodeError := json.Marshal(requestPayload)
		if encodeError != nil {
			return 0, nil, encodeError
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	httpRequest, requestError := retryablehttp.NewRequestWithContext(executionContext, httpMethod, requestURL, requestBody)
	if requestError != nil {
		return 0, nil, requestError
	}
	httpRequest.SetBasicAuth(client.username, client.password)
	if requestPayload != nil {
		httpRequest.Header.Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	}
	if len(client.userAgent) > 0 {
		httpRequest.Header.Set(userAgentHeaderConstant, client.userAgent)
	}

	httpResponse, responseError := client.httpClient.Do(httpRequest)
	if responseError != nil {
		return 0, nil, responseError
	}
	defer func() { _ = httpResponse.Body.Close() }()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return 0, nil, readError
	}

	return httpResponse.StatusCode, responseBody, nil
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

func responseMessageContains(responseBody []byte, messageMarker string) bool {
	decodedResponse := apiMessageResponse{}
	if unmarshalError := json.Unmarshal(responseBody, &decodedResponse); unmarshalError != nil {
		return false
	}
	return strings.Contains(decodedResponse.Message, messageMarker)
}
