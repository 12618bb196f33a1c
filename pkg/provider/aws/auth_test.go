package aws

import (
	"net/url"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func configuredService(t *testing.T) *authService {
	t.Helper()
	s := &authService{}
	require.NoError(t, s.Configure(types.AuthConfig{
		Issuer:   "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AbCdEf",
		ClientID: "client-1",
	}))
	return s
}

func TestConfigureValidation(t *testing.T) {
	s := &authService{}
	err := s.Configure(types.AuthConfig{ClientID: "c"})
	assert.True(t, errdefs.IsValidation(err))
	err = s.Configure(types.AuthConfig{Issuer: "https://issuer"})
	assert.True(t, errdefs.IsValidation(err))
}

func TestGetAuthorizationURL(t *testing.T) {
	s := configuredService(t)
	raw, err := s.GetAuthorizationURL(types.AuthorizationURLParams{
		RedirectURI: "https://app.example.com/callback",
		Scopes:      []string{"openid", "email"},
		State:       "xyzzy",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(u.Path, "/oauth2/authorize"))
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email", q.Get("scope"))
	assert.Equal(t, "xyzzy", q.Get("state"))
}

func TestGetAuthorizationURLRequiresRedirect(t *testing.T) {
	s := configuredService(t)
	_, err := s.GetAuthorizationURL(types.AuthorizationURLParams{})
	assert.True(t, errdefs.IsValidation(err))
}

func TestUnconfiguredServiceRejectsCalls(t *testing.T) {
	s := &authService{}
	_, err := s.GetAuthorizationURL(types.AuthorizationURLParams{RedirectURI: "https://x"})
	assert.True(t, errdefs.IsValidation(err))
}

func TestMapClaims(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":   "user-1",
		"iss":   "https://issuer",
		"aud":   "client-1",
		"exp":   float64(1900000000),
		"iat":   float64(1890000000),
		"email": "ada@example.com",
		"name":  "Ada",
		"scope": "openid email",
		"roles": []interface{}{"admin", "auditor"},
	}
	claims := mapClaims(mc, "roles")
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, []string{"client-1"}, claims.Audience)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, []string{"admin", "auditor"}, claims.Roles)
	assert.False(t, claims.ExpiresAt.IsZero())
}

func TestMapClaimsCognitoGroupsFallback(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":            "user-2",
		"cognito:groups": []interface{}{"operators"},
	}
	claims := mapClaims(mc, "roles")
	assert.Equal(t, []string{"operators"}, claims.Roles)
}

func TestAudienceMatches(t *testing.T) {
	assert.True(t, audienceMatches([]string{"a", "b"}, jwt.MapClaims{}, "b"))
	assert.False(t, audienceMatches([]string{"a"}, jwt.MapClaims{}, "c"))
	assert.True(t, audienceMatches(nil, jwt.MapClaims{"client_id": "c"}, "c"))
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringList([]interface{}{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, stringList("a b"))
	assert.Nil(t, stringList(nil))
	assert.Nil(t, stringList(42))
}

func TestRSAKey(t *testing.T) {
	// 65537 as big-endian bytes.
	pub, err := rsaKey("AQAB", "AQAB")
	require.NoError(t, err)
	assert.Equal(t, 65537, pub.E)
	assert.NotNil(t, pub.N)

	_, err = rsaKey("!!!", "AQAB")
	assert.Error(t, err)
}

func TestAuthConfigFromOptions(t *testing.T) {
	pc := &types.ProviderConfig{
		Region: "eu-west-1",
		Options: types.Options{
			Auth:  types.AuthOptions{UserPoolID: "eu-west-1_AbCdEf"},
			Extra: map[string]string{extraAuthClientID: "client-1"},
		},
	}
	cfg, ok := authConfigFromOptions(pc)
	require.True(t, ok)
	assert.Equal(t, "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AbCdEf", cfg.Issuer)
	assert.Equal(t, "client-1", cfg.ClientID)

	_, ok = authConfigFromOptions(&types.ProviderConfig{})
	assert.False(t, ok)
}

func TestHasScopeAndRole(t *testing.T) {
	c := &authClient{}
	claims := &types.TokenClaims{Scope: "openid profile", Roles: []string{"admin"}}
	assert.True(t, c.HasScope(claims, "profile"))
	assert.False(t, c.HasScope(claims, "email"))
	assert.True(t, c.HasRole(claims, "admin"))
	assert.False(t, c.HasRole(claims, "auditor"))
	assert.False(t, c.HasScope(nil, "openid"))
	assert.False(t, c.HasRole(nil, "admin"))
}
