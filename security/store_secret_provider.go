package security

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-marketplace/core"
)

// StoreSecretProvider resolves signing secrets from the durable client
// registry: each client signs its webhook traffic with its own client
// secret.
type StoreSecretProvider struct {
	clients core.ClientStore
}

func NewStoreSecretProvider(clients core.ClientStore) (*StoreSecretProvider, error) {
	if clients == nil {
		return nil, fmt.Errorf("security: client store is required")
	}
	return &StoreSecretProvider{clients: clients}, nil
}

func (p *StoreSecretProvider) SigningSecret(ctx context.Context, clientID string) (string, error) {
	if p == nil || p.clients == nil {
		return "", fmt.Errorf("security: secret provider is not configured")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", fmt.Errorf("security: client id is required")
	}
	client, err := p.clients.Get(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("security: resolve client %s: %w", clientID, err)
	}
	secret := strings.TrimSpace(client.ClientSecret)
	if secret == "" {
		return "", fmt.Errorf("security: client %s has no signing secret", clientID)
	}
	return secret, nil
}

var _ core.SecretProvider = (*StoreSecretProvider)(nil)
