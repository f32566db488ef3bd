package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/rhuss/lorasampler/pkg/api"
)

// MapHTTPError converts an HTTP response with a non-2xx status code into
// a CallError. It attempts to parse the response body as a ChatErrorResponse
// to extract a descriptive message.
func MapHTTPError(resp *http.Response) *api.CallError {
	// Try to read the body for an error message.
	message := ExtractErrorMessage(resp.Body)

	var kind api.ErrorKind
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		kind = api.ErrorKindInvalidRequest
		if message == "" {
			message = "invalid request to backend"
		}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		kind = api.ErrorKindAuth
		if message == "" {
			message = "backend authentication failed"
		}

	case resp.StatusCode == http.StatusNotFound:
		kind = api.ErrorKindNotFound
		if message == "" {
			message = "backend resource not found"
		}

	case resp.StatusCode == http.StatusRequestTimeout:
		kind = api.ErrorKindTimeout
		if message == "" {
			message = "backend request timed out"
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		kind = api.ErrorKindRateLimited
		if message == "" {
			message = "backend rate limit exceeded"
		}

	case resp.StatusCode >= http.StatusInternalServerError:
		kind = api.ErrorKindServer
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}

	default:
		kind = api.ErrorKindServer
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
	}

	return &api.CallError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into a CallError with a descriptive message.
func MapNetworkError(err error) *api.CallError {
	kind := api.ErrorKindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = api.ErrorKindTimeout
	}
	return &api.CallError{
		Kind:    kind,
		Message: fmt.Sprintf("backend connection error: %s", err.Error()),
		Err:     err,
	}
}

// ExtractErrorMessage tries to parse the response body as a ChatErrorResponse
// and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ChatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	return ""
}
