package openai

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/davidbz/ember/internal/domain"
)

// toStatusError converts SDK API errors into *domain.StatusError.
// Non-HTTP errors (timeouts, dial failures) are returned unchanged.
func toStatusError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	statusErr := &domain.StatusError{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
	}

	if statusErr.Message == "" {
		raw := apiErr.RawJSON()
		statusErr.Message = gjson.Get(raw, "error.message").String()
		if statusErr.Message == "" {
			statusErr.Message = gjson.Get(raw, "message").String()
		}
	}

	if statusErr.Message == "" {
		statusErr.Message = http.StatusText(apiErr.StatusCode)
	}

	if apiErr.Response != nil {
		statusErr.RetryAfter = apiErr.Response.Header.Get("Retry-After")
	}

	return statusErr
}
