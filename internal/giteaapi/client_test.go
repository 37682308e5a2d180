package giteaapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contentforge/vcsync/internal/giteaapi"
)

const (
	testOrganizationNameConstant = "cray"
	testRepositoryNameConstant   = "cos-config-management"
	testBranchNameConstant       = "cray/cos/2.1.0"
	testUsernameConstant         = "crayvcs"
	testPasswordConstant         = "vcs-password"
)

type recordedRequest struct {
	method      string
	requestPath string
	payload     map[string]any
}

func newTestClient(testInstance *testing.T, handler http.Handler) (*giteaapi.Client, *httptest.Server) {
	testServer := httptest.NewServer(handler)
	testInstance.Cleanup(testServer.Close)

	client, creationError := giteaapi.NewClient(giteaapi.ClientOptions{
		BaseURL:  testServer.URL,
		Username: testUsernameConstant,
		Password: testPasswordConstant,
	}, zap.NewNop())
	require.NoError(testInstance, creationError)

	return client, testServer
}

func recordRequest(request *http.Request) recordedRequest {
	recorded := recordedRequest{method: request.Method, requestPath: request.URL.Path}
	if request.Body != nil {
		decodedPayload := map[string]any{}
		if decodeError := json.NewDecoder(request.Body).Decode(&decodedPayload); decodeError == nil {
			recorded.payload = decodedPayload
		}
	}
	return recorded
}

func TestNewClientRequiresBaseURL(testInstance *testing.T) {
	client, creationError := giteaapi.NewClient(giteaapi.ClientOptions{}, zap.NewNop())
	require.Nil(testInstance, client)
	require.Error(testInstance, creationError)
}

func TestEnsureOrganization(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusCode     int
		responseBody   string
		expectedFailed bool
	}{
		{name: "created", statusCode: http.StatusCreated, responseBody: `{}`},
		{name: "already_exists", statusCode: http.StatusUnprocessableEntity, responseBody: `{"message":"user already exists [name: cray]"}`},
		{name: "other_validation_failure", statusCode: http.StatusUnprocessableEntity, responseBody: `{"message":"name is reserved"}`, expectedFailed: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordedRequests := []recordedRequest{}
			client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				recordedRequests = append(recordedRequests, recordRequest(request))
				responseWriter.WriteHeader(testCase.statusCode)
				_, _ = responseWriter.Write([]byte(testCase.responseBody))
			}))

			ensureError := client.EnsureOrganization(context.Background(), testOrganizationNameConstant)
			if testCase.expectedFailed {
				statusError := giteaapi.UnexpectedStatusError{}
				require.ErrorAs(testInstance, ensureError, &statusError)
				require.Equal(testInstance, testCase.statusCode, statusError.StatusCode)
				return
			}

			require.NoError(testInstance, ensureError)
			require.Len(testInstance, recordedRequests, 1)
			require.Equal(testInstance, http.MethodPost, recordedRequests[0].method)
			require.Equal(testInstance, "/orgs", recordedRequests[0].requestPath)
			require.Equal(testInstance, testOrganizationNameConstant, recordedRequests[0].payload["username"])
		})
	}
}

func TestEnsureRepositoryAlignsVisibilityForExistingRepository(testInstance *testing.T) {
	recordedRequests := []recordedRequest{}
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		recordedRequests = append(recordedRequests, recordRequest(request))
		if request.Method == http.MethodPost {
			responseWriter.WriteHeader(http.StatusConflict)
			return
		}
		responseWriter.WriteHeader(http.StatusOK)
	}))

	ensureError := client.EnsureRepository(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant, true)
	require.NoError(testInstance, ensureError)
	require.Len(testInstance, recordedRequests, 2)
	require.Equal(testInstance, http.MethodPatch, recordedRequests[1].method)
	require.Equal(testInstance, "/repos/cray/cos-config-management", recordedRequests[1].requestPath)
	require.Equal(testInstance, true, recordedRequests[1].payload["private"])
}

func TestEnsureRepositoryToleratesRejectedVisibilityUpdate(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodPost {
			responseWriter.WriteHeader(http.StatusConflict)
			return
		}
		responseWriter.WriteHeader(http.StatusUnprocessableEntity)
	}))

	ensureError := client.EnsureRepository(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant, true)
	require.NoError(testInstance, ensureError)
}

func TestGetRepositoryDecodesMetadata(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, "/repos/cray/cos-config-management", request.URL.Path)
		responseWriter.WriteHeader(http.StatusOK)
		_, _ = responseWriter.Write([]byte(`{"default_branch":"main","clone_url":"https://vcs.example/cray/cos-config-management.git","ssh_url":"git@vcs.example:cray/cos-config-management.git"}`))
	}))

	repositoryMetadata, retrievalError := client.GetRepository(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant)
	require.NoError(testInstance, retrievalError)
	require.Equal(testInstance, "main", repositoryMetadata.DefaultBranch)
	require.Equal(testInstance, "https://vcs.example/cray/cos-config-management.git", repositoryMetadata.CloneURL)
	require.Equal(testInstance, "git@vcs.example:cray/cos-config-management.git", repositoryMetadata.SSHURL)
}

func TestBranchExists(testInstance *testing.T) {
	testCases := []struct {
		name           string
		statusCode     int
		expectedExists bool
		expectedFailed bool
	}{
		{name: "branch_present", statusCode: http.StatusOK, expectedExists: true},
		{name: "branch_absent", statusCode: http.StatusNotFound},
		{name: "unexpected_status_is_fatal", statusCode: http.StatusForbidden, expectedFailed: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				require.Equal(testInstance, "/repos/cray/cos-config-management/branches/cray%2Fcos%2F2.1.0", request.URL.EscapedPath())
				responseWriter.WriteHeader(testCase.statusCode)
			}))

			branchExists, probeError := client.BranchExists(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant, testBranchNameConstant)
			if testCase.expectedFailed {
				require.Error(testInstance, probeError)
				return
			}

			require.NoError(testInstance, probeError)
			require.Equal(testInstance, testCase.expectedExists, branchExists)
		})
	}
}

func TestProtectBranchUpdatesExistingProtection(testInstance *testing.T) {
	recordedRequests := []recordedRequest{}
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		recordedRequests = append(recordedRequests, recordRequest(request))
		if request.Method == http.MethodPost {
			responseWriter.WriteHeader(http.StatusForbidden)
			_, _ = responseWriter.Write([]byte(`{"message":"Branch protection already exist [name: cray/cos/2.1.0]"}`))
			return
		}
		responseWriter.WriteHeader(http.StatusOK)
	}))

	protectError := client.ProtectBranch(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant, testBranchNameConstant)
	require.NoError(testInstance, protectError)
	require.Len(testInstance, recordedRequests, 2)
	require.Equal(testInstance, http.MethodPatch, recordedRequests[1].method)
	require.Equal(testInstance, false, recordedRequests[1].payload["enable_push"])
}

func TestRemoveBranchProtectionsSwallowsFailures(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
	}))

	removalError := client.RemoveBranchProtections(context.Background(), testOrganizationNameConstant, testRepositoryNameConstant, testBranchNameConstant)
	require.NoError(testInstance, removalError)
}

func TestWaitForReadinessProbesOncePerAttempt(testInstance *testing.T) {
	requestCount := 0
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		if requestCount < 3 {
			responseWriter.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		responseWriter.WriteHeader(http.StatusOK)
	}))

	readinessError := client.WaitForReadiness(context.Background(), 5, 10*time.Millisecond)
	require.NoError(testInstance, readinessError)
	require.Equal(testInstance, 3, requestCount)
}

func TestWaitForReadinessAcceptsNotFound(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
	}))

	readinessError := client.WaitForReadiness(context.Background(), 3, 10*time.Millisecond)
	require.NoError(testInstance, readinessError)
}
