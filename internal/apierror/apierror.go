// Package apierror holds the JSON error envelope shared by the API handlers
// and the HTTP clients that talk to them.
package apierror

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeReadDegraded = "READ_DEGRADED"
	CodeInternal     = "INTERNAL_ERROR"
)

type Error struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Write sends e wrapped in the error envelope.
func Write(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Envelope{Error: e})
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type Envelope struct {
	Error *Error `json:"error"`
}

// Read decodes a non-2xx response into an *Error. Bodies that are not an
// envelope still yield an error carrying the status.
func Read(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return &Error{
			Status:  resp.StatusCode,
			Code:    codeForStatus(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}
	}
	env.Error.Status = resp.StatusCode
	if env.Error.Code == "" {
		env.Error.Code = codeForStatus(resp.StatusCode)
	}
	return env.Error
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodePersistence
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return CodeReadDegraded
	default:
		return CodeInternal
	}
}
