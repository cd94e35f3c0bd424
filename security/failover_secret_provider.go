package security

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

type SecretProviderFailurePolicy string

const (
	SecretProviderFailurePolicyStrict   SecretProviderFailurePolicy = "strict_fail"
	SecretProviderFailurePolicyFallback SecretProviderFailurePolicy = "fallback_allowed"
)

type SecretProviderDiagnostic struct {
	OccurredAt time.Time
	ClientID   string
	Policy     SecretProviderFailurePolicy
	Outcome    string
	Primary    string
	Fallback   string
	Error      string
}

type SecretProviderDiagnosticHook func(event SecretProviderDiagnostic)

type FailoverOption func(*FailoverSecretProvider)

// FailoverSecretProvider asks a primary resolver first and, when the
// policy allows, falls back to a second resolver. The strict policy
// surfaces the primary failure instead.
type FailoverSecretProvider struct {
	primary        core.SecretProvider
	fallback       core.SecretProvider
	policy         SecretProviderFailurePolicy
	diagnosticHook SecretProviderDiagnosticHook
	now            func() time.Time
}

func NewFailoverSecretProvider(primary core.SecretProvider, opts ...FailoverOption) (*FailoverSecretProvider, error) {
	if primary == nil {
		return nil, fmt.Errorf("security: primary secret provider is required")
	}
	provider := &FailoverSecretProvider{
		primary: primary,
		policy:  SecretProviderFailurePolicyStrict,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	provider.policy = normalizeFailurePolicy(provider.policy)
	if provider.policy == SecretProviderFailurePolicyFallback && provider.fallback == nil {
		return nil, fmt.Errorf("security: fallback policy requires a configured fallback secret provider")
	}
	if provider.now == nil {
		provider.now = func() time.Time { return time.Now().UTC() }
	}
	return provider, nil
}

func WithFallbackSecretProvider(provider core.SecretProvider) FailoverOption {
	return func(f *FailoverSecretProvider) {
		if f == nil {
			return
		}
		f.fallback = provider
	}
}

func WithSecretProviderFailurePolicy(policy SecretProviderFailurePolicy) FailoverOption {
	return func(f *FailoverSecretProvider) {
		if f == nil {
			return
		}
		f.policy = normalizeFailurePolicy(policy)
	}
}

func WithSecretProviderDiagnostics(hook SecretProviderDiagnosticHook) FailoverOption {
	return func(f *FailoverSecretProvider) {
		if f == nil {
			return
		}
		f.diagnosticHook = hook
	}
}

func WithFailoverClock(now func() time.Time) FailoverOption {
	return func(f *FailoverSecretProvider) {
		if f == nil {
			return
		}
		f.now = now
	}
}

func (p *FailoverSecretProvider) SigningSecret(ctx context.Context, clientID string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("security: secret provider is nil")
	}
	secret, err := p.primary.SigningSecret(ctx, clientID)
	if err == nil {
		return secret, nil
	}
	p.emit(clientID, "primary_failed", err)
	if p.policy == SecretProviderFailurePolicyStrict || p.fallback == nil {
		return "", fmt.Errorf("security: primary secret lookup failed with %s policy: %w", p.policy, err)
	}
	fallbackSecret, fallbackErr := p.fallback.SigningSecret(ctx, clientID)
	if fallbackErr != nil {
		p.emit(clientID, "fallback_failed", fallbackErr)
		return "", fmt.Errorf("security: primary secret lookup failed: %v; fallback failed: %w", err, fallbackErr)
	}
	p.emit(clientID, "fallback_succeeded", err)
	return fallbackSecret, nil
}

func (p *FailoverSecretProvider) emit(clientID string, outcome string, err error) {
	if p == nil || p.diagnosticHook == nil {
		return
	}
	now := p.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	p.diagnosticHook(SecretProviderDiagnostic{
		OccurredAt: now().UTC(),
		ClientID:   strings.TrimSpace(clientID),
		Policy:     p.policy,
		Outcome:    outcome,
		Primary:    describeSecretProvider(p.primary),
		Fallback:   describeSecretProvider(p.fallback),
		Error:      msg,
	})
}

func normalizeFailurePolicy(policy SecretProviderFailurePolicy) SecretProviderFailurePolicy {
	normalized := SecretProviderFailurePolicy(strings.ToLower(strings.TrimSpace(string(policy))))
	switch normalized {
	case SecretProviderFailurePolicyFallback:
		return SecretProviderFailurePolicyFallback
	default:
		return SecretProviderFailurePolicyStrict
	}
}

func describeSecretProvider(provider core.SecretProvider) string {
	if provider == nil {
		return ""
	}
	return reflect.TypeOf(provider).String()
}

var _ core.SecretProvider = (*FailoverSecretProvider)(nil)
