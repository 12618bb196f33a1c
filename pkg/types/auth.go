package types

import (
	"time"
)

// AuthConfig configures the OAuth2/OIDC integration
type AuthConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	JWKSURL      string // Derived from issuer discovery when empty
	Audience     string
	RolesClaim   string // Defaults to "roles"
}

// TokenSet is the result of a code exchange or refresh
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int // Seconds
	TokenType    string
	Scope        string
}

// TokenClaims are the verified claims of a token
type TokenClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Email     string
	Name      string
	Scope     string // Space-separated
	Roles     []string
}

// UserInfo is the OIDC userinfo response
type UserInfo struct {
	Subject string
	Email   string
	Name    string
	Claims  map[string]interface{}
}

// AuthorizationURLParams builds an authorization-code redirect
type AuthorizationURLParams struct {
	RedirectURI string
	Scopes      []string
	State       string
}
