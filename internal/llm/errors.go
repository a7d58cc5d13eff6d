package llm

import (
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// StatusCode extracts the HTTP status reported by either provider SDK, or 0 when
// the error did not come from an API response (network failure, cancelled context).
// It only feeds logs; callers do not branch on it.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
