package auth

import (
	"context"
	"errors"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

type Identity struct {
	Email string
	Name  string
}

// IdentityVerifier checks an ID token issued by the external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type GoogleVerifier struct {
	client *fbauth.Client
}

func NewGoogleVerifier(ctx context.Context, projectID, credentialsFile string) (*GoogleVerifier, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleVerifier{client: client}, nil
}

func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{Email: email, Name: name}, nil
}
