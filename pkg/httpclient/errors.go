package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kumaruseru/owls/pkg/errors"
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 1 << 20 // 1 MB

// ParseResponseError reads the body of a non-2xx backend response and
// translates it into an AppError, preserving the backend's error shape.
//
// The backend (Django REST Framework) returns errors in three shapes:
//
//	{"detail": "Authentication credentials were not provided."}
//	{"error": "Sản phẩm không tồn tại."}
//	{"email": ["Enter a valid email address."], "password": ["This field is required."]}
//
// The last shape is a field -> messages validation map and is surfaced via
// AppError.Fields so forms can render messages inline.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.Upstream(fmt.Sprintf("backend returned status %d (failed to read body: %v)", resp.StatusCode, err))
	}

	message, fields := decodeErrorBody(body)
	if message == "" && len(fields) == 0 {
		message = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}

	return mapBackendError(resp.StatusCode, message, fields)
}

// decodeErrorBody extracts a top-level message and/or field-level messages
// from a backend error payload.
func decodeErrorBody(body []byte) (message string, fields map[string][]string) {
	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil {
		return "", nil
	}

	for key, val := range raw {
		switch key {
		case "detail", "error", "message":
			var s string
			if json.Unmarshal(val, &s) == nil && message == "" {
				message = s
			}
		default:
			var msgs []string
			if json.Unmarshal(val, &msgs) == nil {
				if fields == nil {
					fields = make(map[string][]string)
				}
				fields[key] = msgs
				continue
			}
			// DRF sometimes nests a single string under a field key.
			var s string
			if json.Unmarshal(val, &s) == nil {
				if fields == nil {
					fields = make(map[string][]string)
				}
				fields[key] = []string{s}
			}
		}
	}

	return message, fields
}

// mapBackendError translates a backend HTTP status into an AppError that
// preserves the error semantics for callers.
func mapBackendError(status int, message string, fields map[string][]string) error {
	switch {
	case status == http.StatusBadRequest && len(fields) > 0:
		err := apperrors.Validation(fields)
		if message != "" {
			err.Message = message
		}
		return err
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusTooManyRequests:
		return &apperrors.AppError{
			Code:    "RATE_LIMITED",
			Message: message,
			Status:  http.StatusTooManyRequests,
			Err:     apperrors.ErrRateLimited,
		}
	case status >= 500:
		return apperrors.Upstream(message)
	default:
		return &apperrors.AppError{
			Code:    "BACKEND_ERROR",
			Message: message,
			Fields:  fields,
			Status:  status,
		}
	}
}
