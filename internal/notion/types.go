// Package notion provides a client for the Notion REST API.
// Only the endpoints needed to backfill page summaries are implemented.
package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the Notion API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion API error: %s: %s (status: %d, endpoint: %s)", e.Code, e.Message, e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("notion API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is a Notion 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// errorBody is the JSON shape Notion returns for failed requests.
type errorBody struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newAPIError builds an APIError from a response body, keeping the raw body
// as the message when it is not a Notion error object.
func newAPIError(statusCode int, endpoint string, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    string(body),
		Endpoint:   endpoint,
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Object == "error" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}
	return apiErr
}

// queryRequest is the body of POST /v1/databases/{id}/query
type queryRequest struct {
	Filter      map[string]interface{} `json:"filter,omitempty"`
	PageSize    int                    `json:"page_size,omitempty"`
	StartCursor string                 `json:"start_cursor,omitempty"`
}

// propertyValue is a rich_text property value in a page update
type propertyValue struct {
	RichText interface{} `json:"rich_text"`
}

// updatePageRequest is the body of PATCH /v1/pages/{id}
type updatePageRequest struct {
	Properties map[string]propertyValue `json:"properties"`
}
