package giteaapi

import "fmt"

const (
	unexpectedStatusErrorTemplateConstant = "%s %s returned unexpected status %d: %s"
)

// UnexpectedStatusError reports an API response outside the statuses an operation tolerates.
type UnexpectedStatusError struct {
	Method       string
	RequestURL   string
	StatusCode   int
	ResponseBody string
}

// Error describes the unexpected response.
func (statusError UnexpectedStatusError) Error() string {
	return fmt.Sprintf(unexpectedStatusErrorTemplateConstant, statusError.Method, statusError.RequestURL, statusError.StatusCode, statusError.ResponseBody)
}
