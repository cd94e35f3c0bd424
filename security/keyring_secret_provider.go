package security

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-marketplace/core"
)

type KeyringOption func(*KeyringSecretProvider)

// KeyringSecretProvider resolves webhook signing secrets from an
// in-memory keyring keyed by client id. A default secret, when set,
// answers for clients the keyring does not know.
type KeyringSecretProvider struct {
	mu            sync.RWMutex
	secrets       map[string]string
	defaultSecret string
}

func WithDefaultSigningSecret(secret string) KeyringOption {
	return func(p *KeyringSecretProvider) {
		trimmed := strings.TrimSpace(secret)
		if trimmed != "" {
			p.defaultSecret = trimmed
		}
	}
}

func WithClientSecret(clientID string, secret string) KeyringOption {
	return func(p *KeyringSecretProvider) {
		clientID = strings.TrimSpace(clientID)
		secret = strings.TrimSpace(secret)
		if clientID == "" || secret == "" {
			return
		}
		p.secrets[clientID] = secret
	}
}

func NewKeyringSecretProvider(opts ...KeyringOption) (*KeyringSecretProvider, error) {
	provider := &KeyringSecretProvider{
		secrets: map[string]string{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	if len(provider.secrets) == 0 && provider.defaultSecret == "" {
		return nil, fmt.Errorf("security: keyring requires at least one signing secret")
	}
	return provider, nil
}

func (p *KeyringSecretProvider) SigningSecret(_ context.Context, clientID string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("security: secret provider is nil")
	}
	clientID = strings.TrimSpace(clientID)
	p.mu.RLock()
	secret, ok := p.secrets[clientID]
	fallback := p.defaultSecret
	p.mu.RUnlock()
	if ok {
		return secret, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("security: no signing secret for client %q", clientID)
}

// SetClientSecret registers or replaces the signing secret for a client.
func (p *KeyringSecretProvider) SetClientSecret(clientID string, secret string) error {
	if p == nil {
		return fmt.Errorf("security: secret provider is nil")
	}
	clientID = strings.TrimSpace(clientID)
	secret = strings.TrimSpace(secret)
	if clientID == "" {
		return fmt.Errorf("security: client id is required")
	}
	if secret == "" {
		return fmt.Errorf("security: signing secret is required")
	}
	p.mu.Lock()
	p.secrets[clientID] = secret
	p.mu.Unlock()
	return nil
}

var _ core.SecretProvider = (*KeyringSecretProvider)(nil)
