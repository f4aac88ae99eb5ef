package moderation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	token string
	err   error
}

func (p fakeProvider) Name() string { return p.name }

func (p fakeProvider) Token(ctx context.Context) (string, error) {
	return p.token, p.err
}

func TestCredentialChainOrdering(t *testing.T) {
	tests := []struct {
		name      string
		chain     CredentialChain
		wantToken string
		wantErr   error
	}{
		{
			name: "first resolving provider wins",
			chain: CredentialChain{
				fakeProvider{name: "env", token: "env-token"},
				fakeProvider{name: "file", token: "file-token"},
			},
			wantToken: "env-token",
		},
		{
			name: "failures fall through in priority order",
			chain: CredentialChain{
				fakeProvider{name: "env", err: fmt.Errorf("not configured")},
				fakeProvider{name: "file", err: fmt.Errorf("no such file")},
				fakeProvider{name: "key", token: "api-key"},
			},
			wantToken: "api-key",
		},
		{
			name:    "empty chain yields ErrNoCredentials",
			chain:   CredentialChain{},
			wantErr: ErrNoCredentials,
		},
		{
			name: "all failing yields ErrNoCredentials",
			chain: CredentialChain{
				fakeProvider{name: "env", err: fmt.Errorf("boom")},
			},
			wantErr: ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.chain.Token(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestProvidersUnconfigured(t *testing.T) {
	ctx := context.Background()

	_, err := ServiceKeyJSONProvider{}.Token(ctx)
	assert.Error(t, err)

	_, err = ServiceAccountFileProvider{}.Token(ctx)
	assert.Error(t, err)

	_, err = ServiceAccountFileProvider{Path: "/nonexistent/key.json"}.Token(ctx)
	assert.Error(t, err)

	_, err = APIKeyProvider{}.Token(ctx)
	assert.Error(t, err)
}

func TestAPIKeyProviderReturnsKey(t *testing.T) {
	token, err := APIKeyProvider{Key: "static-key"}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static-key", token)
}
