package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/levelup-ai/internal/models"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseVerifier verifies Firebase Authentication id-tokens
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier initializes a Firebase app for projectID. credentialsFile may be empty
// to use application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Name implements TokenVerifier
func (v *FirebaseVerifier) Name() string {
	return "firebase"
}

// Verify implements TokenVerifier
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*models.Identity, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if auth.IsCertificateFetchFailed(err) {
			return nil, fmt.Errorf("failed to fetch Firebase signing certificates: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identityFromFirebase(token), nil
}

func identityFromFirebase(token *auth.Token) *models.Identity {
	id := &models.Identity{
		UserID:    token.UID,
		Issuer:    token.Issuer,
		Audience:  token.Audience,
		ExpiresAt: time.Unix(token.Expires, 0),
	}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id
}
