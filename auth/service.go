package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/core"
)

const (
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeAuthorizationCode = "authorization_code"

	ScopeEatsStore           = "eats.store"
	ScopeEatsPOSProvisioning = "eats.pos_provisioning"
	ScopeEatsOrder           = "eats.order"

	tokenPrefix = "KA"
)

// DefaultScopes is the grant set handed to clients that do not ask for
// specific scopes.
var DefaultScopes = []string{ScopeEatsStore, ScopeEatsPOSProvisioning, ScopeEatsOrder}

type ServiceConfig struct {
	TokenTTL time.Duration
	Now      func() time.Time
}

// Service is the marketplace OAuth surface: client-credential
// validation, opaque token issuance, and bearer/scope checks.
type Service struct {
	clients core.ClientStore
	tokens  core.TokenStore
	config  ServiceConfig
}

func NewService(clients core.ClientStore, tokens core.TokenStore, cfg ServiceConfig) (*Service, error) {
	if clients == nil {
		return nil, fmt.Errorf("auth: client store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("auth: token store is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{clients: clients, tokens: tokens, config: cfg}, nil
}

type IssueTokenRequest struct {
	ClientID     string
	ClientSecret string
	GrantType    string
	Scope        string
}

type IssuedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// IssueToken validates the client credentials and mints an opaque
// bearer token, persisting it for later validation.
func (s *Service) IssueToken(ctx context.Context, req IssueTokenRequest) (IssuedToken, error) {
	if s == nil || s.clients == nil || s.tokens == nil {
		return IssuedToken{}, fmt.Errorf("auth: service is not configured")
	}

	grantType := strings.TrimSpace(req.GrantType)
	switch grantType {
	case GrantTypeClientCredentials, GrantTypeAuthorizationCode:
	default:
		return IssuedToken{}, goerrors.New(
			fmt.Sprintf("auth: unsupported grant type %q", grantType),
			goerrors.CategoryBadInput,
		)
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return IssuedToken{}, goerrors.New("auth: client_id is required", goerrors.CategoryBadInput)
	}

	client, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return IssuedToken{}, invalidClient(clientID)
	}
	if client.ClientSecret != strings.TrimSpace(req.ClientSecret) {
		return IssuedToken{}, invalidClient(clientID)
	}

	scope := normalizeScope(req.Scope)
	if scope == "" {
		scope = strings.Join(DefaultScopes, " ")
	}

	now := s.config.Now().UTC()
	expiresAt := now.Add(s.config.TokenTTL)
	token, err := mintToken(clientID, scope, now)
	if err != nil {
		return IssuedToken{}, err
	}

	record := core.AccessToken{
		Token:     token,
		ClientID:  clientID,
		GrantType: grantType,
		Scope:     scope,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return IssuedToken{}, fmt.Errorf("auth: persist token: %w", err)
	}

	return IssuedToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.TokenTTL / time.Second),
		Scope:       scope,
	}, nil
}

// IssueAuthorizationCode validates the client and mints a code for the
// mock authorize redirect flow. Codes are informational; the token
// endpoint only ever checks client credentials.
func (s *Service) IssueAuthorizationCode(ctx context.Context, clientID string) (string, error) {
	if s == nil || s.clients == nil {
		return "", fmt.Errorf("auth: service is not configured")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", goerrors.New("auth: client_id is required", goerrors.CategoryBadInput)
	}
	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return "", invalidClient(clientID)
	}
	code := make([]byte, 32)
	if _, err := rand.Read(code); err != nil {
		return "", fmt.Errorf("auth: authorization code generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(code), nil
}

// ValidateBearer resolves a bearer token and rejects expired ones.
func (s *Service) ValidateBearer(ctx context.Context, bearer string) (core.AccessToken, error) {
	if s == nil || s.tokens == nil {
		return core.AccessToken{}, fmt.Errorf("auth: service is not configured")
	}
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return core.AccessToken{}, goerrors.New("auth: access token is required", goerrors.CategoryAuth)
	}
	token, err := s.tokens.Get(ctx, bearer)
	if err != nil {
		return core.AccessToken{}, err
	}
	if !token.ExpiresAt.After(s.config.Now().UTC()) {
		return core.AccessToken{}, goerrors.New("auth: access token expired", goerrors.CategoryAuth)
	}
	return token, nil
}

// RequireScope enforces that the token grants the named scope.
func (s *Service) RequireScope(token core.AccessToken, scope string) error {
	if token.HasScope(scope) {
		return nil
	}
	return goerrors.New(
		fmt.Sprintf("auth: token missing required scope %s", scope),
		goerrors.CategoryAuthz,
	)
}

// PruneExpired removes tokens whose expiry has passed.
func (s *Service) PruneExpired(ctx context.Context) (int, error) {
	if s == nil || s.tokens == nil {
		return 0, fmt.Errorf("auth: service is not configured")
	}
	return s.tokens.DeleteExpired(ctx, s.config.Now().UTC())
}

// SeedClient registers a client credential pair, replacing any stored
// secret for the same client id.
func (s *Service) SeedClient(ctx context.Context, clientID string, clientSecret string) error {
	if s == nil || s.clients == nil {
		return fmt.Errorf("auth: service is not configured")
	}
	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("auth: client id and secret are required")
	}
	return s.clients.Upsert(ctx, core.Client{ClientID: clientID, ClientSecret: clientSecret})
}

type tokenPayload struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
	IssuedAt int64  `json:"iat"`
}

// mintToken builds an opaque KA.<base64 payload>.<hex nonce> token. The
// payload segment is informational; validation always goes through the
// token store.
func mintToken(clientID string, scope string, now time.Time) (string, error) {
	payload, err := json.Marshal(tokenPayload{
		ClientID: clientID,
		Scope:    scope,
		IssuedAt: now.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("auth: encode token payload: %w", err)
	}
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth: token nonce generation failed: %w", err)
	}
	sum := sha256.Sum256(append(payload, nonce...))
	return tokenPrefix + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "." +
		hex.EncodeToString(sum[:16]), nil
}

func normalizeScope(scope string) string {
	fields := strings.Fields(strings.TrimSpace(scope))
	if len(fields) == 0 {
		return ""
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, exists := seen[field]; exists {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	sort.Strings(out)
	return strings.Join(out, " ")
}

func invalidClient(clientID string) error {
	return goerrors.New(
		fmt.Sprintf("auth: invalid client credentials for %s", clientID),
		goerrors.CategoryAuth,
	)
}
