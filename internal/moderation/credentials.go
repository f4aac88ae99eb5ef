package moderation

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenProvider resolves a bearer token for the classifier API.
type TokenProvider interface {
	// Name identifies the provider in logs and chain errors.
	Name() string
	Token(ctx context.Context) (string, error)
}

// ServiceKeyJSONProvider exchanges a service-account key embedded in the
// environment for an OAuth2 access token. Preferred in cloud deployments
// where mounting a key file is awkward.
type ServiceKeyJSONProvider struct {
	JSON string
}

func (p ServiceKeyJSONProvider) Name() string { return "service-key-json" }

func (p ServiceKeyJSONProvider) Token(ctx context.Context) (string, error) {
	if p.JSON == "" {
		return "", fmt.Errorf("service key JSON not configured")
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(p.JSON), cloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("parsing service key JSON: %w", err)
	}
	tok, err := creds.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("refreshing token from service key JSON: %w", err)
	}
	return tok.AccessToken, nil
}

// ServiceAccountFileProvider exchanges an on-disk service-account key file
// for an OAuth2 access token. Intended for local development.
type ServiceAccountFileProvider struct {
	Path string
}

func (p ServiceAccountFileProvider) Name() string { return "service-account-file" }

func (p ServiceAccountFileProvider) Token(ctx context.Context) (string, error) {
	if p.Path == "" {
		return "", fmt.Errorf("service account file not configured")
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", fmt.Errorf("reading service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("parsing service account file: %w", err)
	}
	tok, err := creds.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("refreshing token from service account file: %w", err)
	}
	return tok.AccessToken, nil
}

// APIKeyProvider returns a static API key. Google has deprecated API keys
// for the moderateText endpoint, so this is a last resort.
type APIKeyProvider struct {
	Key string
}

func (p APIKeyProvider) Name() string { return "api-key" }

func (p APIKeyProvider) Token(ctx context.Context) (string, error) {
	if p.Key == "" {
		return "", fmt.Errorf("API key not configured")
	}
	return p.Key, nil
}

// CredentialChain tries each provider in order and returns the first token
// that resolves. An empty or fully failing chain yields ErrNoCredentials so
// callers can skip the network call entirely.
type CredentialChain []TokenProvider

func (c CredentialChain) Name() string { return "chain" }

func (c CredentialChain) Token(ctx context.Context) (string, error) {
	for _, provider := range c {
		tok, err := provider.Token(ctx)
		if err == nil && tok != "" {
			return tok, nil
		}
	}
	return "", ErrNoCredentials
}
