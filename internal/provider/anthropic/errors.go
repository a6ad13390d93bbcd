package anthropic

import (
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/davidbz/ember/internal/domain"
)

// toStatusError converts SDK API errors into *domain.StatusError.
// Non-HTTP errors (timeouts, dial failures) are returned unchanged.
func toStatusError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	statusErr := &domain.StatusError{
		StatusCode: apiErr.StatusCode,
		Message:    gjson.Get(apiErr.RawJSON(), "error.message").String(),
	}

	if statusErr.Message == "" {
		statusErr.Message = http.StatusText(apiErr.StatusCode)
	}

	if apiErr.Response != nil {
		statusErr.RetryAfter = apiErr.Response.Header.Get("Retry-After")
	}

	return statusErr
}
