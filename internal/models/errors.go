package models

import "errors"

var (
	// ErrUnauthenticated indicates the request carried no user identifier
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrQuotaExceeded indicates the daily request ceiling was reached
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrInvalidMode indicates an unrecognized processing mode
	ErrInvalidMode = errors.New("invalid mode")
	// ErrUpstreamUnavailable indicates the generation service is not configured or failed
	ErrUpstreamUnavailable = errors.New("generation service unavailable")
	// ErrMissingPayload indicates a required input (file or text) was absent
	ErrMissingPayload = errors.New("missing payload")
	// ErrPayloadTooLarge indicates an upload exceeded the configured maximum size
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrUnsupportedMedia indicates an upload whose type does not match the endpoint
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
