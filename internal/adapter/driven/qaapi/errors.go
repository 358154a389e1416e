package qaapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// APIError is returned for every non-2xx backend response. It unwraps to the
// model sentinel matching its status code.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Unwrap maps the status code to a model sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return model.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return model.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	case e.StatusCode == http.StatusRequestEntityTooLarge:
		return model.ErrTooLarge
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return model.ErrInvalidInput
	case e.StatusCode >= 500:
		return model.ErrServer
	default:
		return nil
	}
}

// newAPIError reads the backend's {"detail": ...} body. Validation failures
// carry a list as detail; it is kept verbatim.
func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		apiErr.Detail = strings.TrimSpace(string(body))
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
	} else {
		apiErr.Detail = string(envelope.Detail)
	}
	return apiErr
}
