package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// OIDCVerifier verifies id-tokens signed by an OIDC issuer's JWKS
type OIDCVerifier struct {
	jwksManager *JWKSManager
	issuer      string
	jwksURL     string
}

// NewOIDCVerifier creates a verifier for tokens from issuer, signed with keys at jwksURL
func NewOIDCVerifier(jwksManager *JWKSManager, issuer, jwksURL string) *OIDCVerifier {
	return &OIDCVerifier{
		jwksManager: jwksManager,
		issuer:      issuer,
		jwksURL:     jwksURL,
	}
}

// Name implements TokenVerifier
func (v *OIDCVerifier) Name() string {
	return "oidc"
}

// Verify implements TokenVerifier. It checks the signature, expiry and issuer.
func (v *OIDCVerifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	keys, err := v.jwksManager.GetJWKS(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}

	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: token missing subject claim", ErrInvalidToken)
	}

	id := &models.Identity{
		UserID:    token.Subject(),
		Issuer:    token.Issuer(),
		ExpiresAt: token.Expiration(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		id.Audience = aud[0]
	}
	id.Email = stringClaim(token, "email")
	id.Name = stringClaim(token, "name")
	return id, nil
}

func stringClaim(token jwt.Token, name string) string {
	v, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
