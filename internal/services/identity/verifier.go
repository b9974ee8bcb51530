// Package identity verifies client id-tokens for the auth verify endpoint.
package identity

import (
	"context"
	"errors"

	"github.com/benvon/levelup-ai/internal/models"
)

// ErrInvalidToken is returned when an id-token fails verification. Other errors mean the
// verifier itself could not do its job (key fetch, network).
var ErrInvalidToken = errors.New("invalid id token")

// TokenVerifier validates an id-token and returns the caller it was issued for.
// A nil TokenVerifier means no verification is configured.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*models.Identity, error)
	Name() string
}

// IsInvalidToken reports whether err is a token rejection rather than an infrastructure failure
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
