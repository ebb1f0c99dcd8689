package oidc

// Package oidc implements the AuthProvider port against the platform's
// external identity service using OIDC/OAuth2.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	"github.com/clinova/platform/internal/domain/identity"
	"github.com/clinova/platform/internal/ports"
)

// ClaimEvaluator abstracts JMESPath evaluation over raw token claims, for
// testability.
type ClaimEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, claims any) (any, error)
}

type jmespathEvaluator struct{}

func (jmespathEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (jmespathEvaluator) Evaluate(expr string, claims any) (any, error) {
	return jmespath.Search(expr, claims)
}

// Provider implements the AuthProvider interface using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	logoutURL  string
	httpClient *http.Client

	roleClaimPath   string
	clinicClaimPath string
	evaluator       ClaimEvaluator

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	// RoleClaimPath is a JMESPath expression locating the trusted role claim
	// in the ID token (identity providers disagree on where role metadata
	// lives). Empty means the identity carries no role hint.
	RoleClaimPath string
	// ClinicClaimPath locates the tenant (clinic) identifier claim. Optional.
	ClinicClaimPath string
	HTTPClient      *http.Client // Optional, defaults to a 30s-timeout client
	Evaluator       ClaimEvaluator
}

// NewProvider creates a new OIDC provider, performing a single discovery
// fetch and validating the configured claim paths.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	evaluator := config.Evaluator
	if evaluator == nil {
		evaluator = jmespathEvaluator{}
	}
	if err := evaluator.Validate(config.RoleClaimPath); err != nil {
		return nil, fmt.Errorf("invalid role claim path: %w", err)
	}
	if err := evaluator.Validate(config.ClinicClaimPath); err != nil {
		return nil, fmt.Errorf("invalid clinic claim path: %w", err)
	}

	p := &Provider{
		logoutURL:       config.LogoutURL,
		httpClient:      httpClient,
		roleClaimPath:   config.RoleClaimPath,
		clinicClaimPath: config.ClinicClaimPath,
		evaluator:       evaluator,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	// redirect_uri must match the configured RedirectURL exactly; the
	// caller's destination travels in a cookie instead.
	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (identity.Identity, error) {
	if in.Code == "" {
		return identity.Identity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return identity.Identity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return identity.Identity{}, errors.New("nonce is required")
	}

	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := idTokenFromToken(token)
	if err != nil {
		return identity.Identity{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var std standardClaims
	if claimsErr := idTok.Claims(&std); claimsErr != nil {
		return identity.Identity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if in.Nonce != "" && std.Nonce != in.Nonce {
		return identity.Identity{}, errors.New("invalid nonce")
	}

	var raw map[string]any
	if claimsErr := idTok.Claims(&raw); claimsErr != nil {
		return identity.Identity{}, fmt.Errorf("decode raw claims: %w", claimsErr)
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	id := identity.Identity{
		UserID:    std.Sub,
		Email:     std.Email,
		FirstName: std.GivenName,
		LastName:  std.FamilyName,
		Role:      p.stringClaim(p.roleClaimPath, raw),
		ClinicID:  p.stringClaim(p.clinicClaimPath, raw),
		ExpiresAt: expiresAt,
	}
	if id.UserID == "" || id.Email == "" {
		if fillErr := p.fillFromUserInfo(ctx, token.AccessToken, &id); fillErr != nil {
			return identity.Identity{}, fmt.Errorf("get user info: %w", fillErr)
		}
	}
	return id, nil
}

// stringClaim evaluates the claim path against raw claims and coerces the
// result to a string. Missing claims and evaluation failures yield "": a
// broken claim path must not block login, only downgrade the role hint.
func (p *Provider) stringClaim(path string, raw map[string]any) string {
	if path == "" {
		return ""
	}
	v, err := p.evaluator.Evaluate(path, raw)
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []any:
		if len(s) > 0 {
			if first, ok := s[0].(string); ok {
				return first
			}
		}
	}
	return ""
}

// standardClaims covers the OIDC claims the platform relies on.
type standardClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Nonce      string `json:"nonce"`
}

type userInfoClaims struct {
	Subject    string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, id *identity.Identity) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var claims userInfoClaims
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return fmt.Errorf("decode user info: %w", claimsErr)
	}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if id.Email == "" {
		id.Email = claims.Email
	}
	if id.FirstName == "" {
		id.FirstName = claims.GivenName
	}
	if id.LastName == "" {
		id.LastName = claims.FamilyName
	}
	return nil
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

// idTokenFromToken extracts the id_token from the oauth2 token response.
func idTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
