package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// downstreamError mirrors the {error: {code, message}} envelope returned by
// the catalog and inventory services.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx response and translates it
// into an AppError preserving the downstream code and message where possible.
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream downstreamError
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		qualified := fmt.Sprintf("%s: %s", serviceName, downstream.Error.Message)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return apperrors.NotFound(serviceName, downstream.Error.Message)
		case resp.StatusCode == http.StatusBadRequest:
			return apperrors.InvalidInput(qualified)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%s server error (%d/%s): %s", serviceName, resp.StatusCode, downstream.Error.Code, downstream.Error.Message)
		default:
			return &apperrors.AppError{
				Code:    downstream.Error.Code,
				Message: qualified,
				Status:  resp.StatusCode,
			}
		}
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
}
