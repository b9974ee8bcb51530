package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/api/googleapi"
)

var (
	// ErrEmptyResponse indicates the provider returned no usable text
	ErrEmptyResponse = errors.New("empty response from generation service")
	// ErrBlocked indicates the provider refused to answer, usually on safety grounds
	ErrBlocked = errors.New("response blocked by generation service")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Provider    string
	Message     string
	Type        string
	Code        string
	StatusCode  int
	IsPermanent bool // true for quota/billing errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a provider quota or billing exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "resource_exhausted") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError converts a provider SDK error into an APIError, or returns nil
// when err carries no recognizable status.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		apiErr := &APIError{
			Provider:   "gemini",
			StatusCode: gErr.Code,
			Message:    gErr.Message,
			Type:       http.StatusText(gErr.Code),
		}
		for _, item := range gErr.Errors {
			if item.Reason != "" {
				apiErr.Code = item.Reason
				break
			}
		}
		apiErr.IsPermanent = apiErr.StatusCode == http.StatusTooManyRequests && isBillingReason(apiErr.Code+" "+apiErr.Message)
		return apiErr
	}

	var oErr *openai.Error
	if errors.As(err, &oErr) {
		apiErr := &APIError{
			Provider:   "openai",
			StatusCode: oErr.StatusCode,
			Message:    oErr.Message,
			Type:       oErr.Type,
			Code:       oErr.Code,
		}
		apiErr.IsPermanent = oErr.Code == "insufficient_quota"
		return apiErr
	}

	// Some transports only surface the status inside the message, with a JSON body appended.
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}
	apiErr := &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		jsonStr := errStr[jsonStart:]
		if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(jsonStr[:jsonEnd+1]), &errorData) == nil {
				apiErr.Message = errorData.Message
				apiErr.Type = errorData.Type
				apiErr.Code = errorData.Code
			}
		}
	}
	apiErr.IsPermanent = apiErr.Code == "insufficient_quota"
	return apiErr
}

func isBillingReason(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "billing") || strings.Contains(s, "quota")
}

// wrapProviderError attaches the classified API error when one can be extracted
func wrapProviderError(op string, err error) error {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}
