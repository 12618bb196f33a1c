package aws

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/types"
)

const (
	extraAuthClientID     = "auth.clientId"
	extraAuthClientSecret = "auth.clientSecret"
	extraAuthAudience     = "auth.audience"
	extraAuthIssuer       = "auth.issuer"

	keyCacheTTL      = time.Hour
	discoveryTimeout = 10 * time.Second
)

// discovery is the subset of the OIDC discovery document the adapter
// consumes.
type discovery struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

type authService struct {
	hc   *http.Client
	cip  *cognitoidentityprovider.Client
	keys *gocache.Cache

	mu         sync.RWMutex
	cfg        types.AuthConfig
	configured bool
	doc        *discovery
}

func newAuthService(cfg awssdk.Config, deps provider.Deps) *authService {
	s := &authService{
		hc: &http.Client{Timeout: discoveryTimeout},
		cip: cognitoidentityprovider.NewFromConfig(cfg, func(o *cognitoidentityprovider.Options) {
			o.BaseEndpoint = endpoint(deps.Config)
		}),
		keys: gocache.New(keyCacheTTL, 2*keyCacheTTL),
	}
	// Pre-configure from options so the data-plane client works
	// without an explicit Configure call.
	if derived, ok := authConfigFromOptions(deps.Config); ok {
		_ = s.Configure(derived)
	}
	return s
}

func authConfigFromOptions(pc *types.ProviderConfig) (types.AuthConfig, bool) {
	extra := pc.Options.Extra
	cfg := types.AuthConfig{
		Issuer:       extra[extraAuthIssuer],
		ClientID:     extra[extraAuthClientID],
		ClientSecret: extra[extraAuthClientSecret],
		Audience:     extra[extraAuthAudience],
	}
	if cfg.Issuer == "" && pc.Options.Auth.UserPoolID != "" {
		region := pc.Options.Auth.UserPoolRegion
		if region == "" {
			region = pc.Region
		}
		cfg.Issuer = fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, pc.Options.Auth.UserPoolID)
	}
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return types.AuthConfig{}, false
	}
	return cfg, true
}

func (s *authService) Configure(cfg types.AuthConfig) error {
	if cfg.Issuer == "" {
		return errdefs.NewValidationPath("issuer", "issuer is required")
	}
	if cfg.ClientID == "" {
		return errdefs.NewValidationPath("clientId", "client id is required")
	}
	if cfg.RolesClaim == "" {
		cfg.RolesClaim = "roles"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.configured = true
	s.doc = nil
	if s.keys == nil {
		s.keys = gocache.New(keyCacheTTL, 2*keyCacheTTL)
	}
	if s.hc == nil {
		s.hc = &http.Client{Timeout: discoveryTimeout}
	}
	s.keys.Flush()
	return nil
}

func (s *authService) GetAuthorizationURL(params types.AuthorizationURLParams) (string, error) {
	cfg, err := s.config()
	if err != nil {
		return "", err
	}
	if params.RedirectURI == "" {
		return "", errdefs.NewValidationPath("redirectUri", "redirect uri is required")
	}
	base := strings.TrimSuffix(cfg.Issuer, "/") + "/oauth2/authorize"
	s.mu.RLock()
	if s.doc != nil && s.doc.AuthorizationEndpoint != "" {
		base = s.doc.AuthorizationEndpoint
	}
	s.mu.RUnlock()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", params.RedirectURI)
	if len(params.Scopes) > 0 {
		q.Set("scope", strings.Join(params.Scopes, " "))
	}
	if params.State != "" {
		q.Set("state", params.State)
	}
	return base + "?" + q.Encode(), nil
}

func (s *authService) ExchangeCodeForTokens(ctx context.Context, code, redirectURI string) (*types.TokenSet, error) {
	if code == "" {
		return nil, errdefs.NewValidationPath("code", "authorization code is required")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return s.tokenRequest(ctx, form)
}

func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (*types.TokenSet, error) {
	if refreshToken == "" {
		return nil, errdefs.NewValidationPath("refreshToken", "refresh token is required")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return s.tokenRequest(ctx, form)
}

func (s *authService) tokenRequest(ctx context.Context, form url.Values) (*types.TokenSet, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	doc, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	form.Set("client_id", cfg.ClientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, doc.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errdefs.NewUnavailable("building token request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cfg.ClientSecret != "" {
		req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, translate(err, "token endpoint")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, translate(err, "token endpoint")
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, errdefs.NewAuthentication("token request rejected: %s", strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errdefs.NewUnavailable("token endpoint returned %d", resp.StatusCode)
	}
	var payload struct {
		AccessToken  string `json:"access_token"`
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		TokenType    string `json:"token_type"`
		Scope        string `json:"scope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errdefs.NewUnavailable("token endpoint returned malformed JSON").WithCause(err)
	}
	return &types.TokenSet{
		AccessToken:  payload.AccessToken,
		IDToken:      payload.IDToken,
		RefreshToken: payload.RefreshToken,
		ExpiresIn:    payload.ExpiresIn,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error) {
	return s.verify(ctx, accessToken, false)
}

func (s *authService) VerifyIDToken(ctx context.Context, idToken string) (*types.TokenClaims, error) {
	return s.verify(ctx, idToken, true)
}

func (s *authService) verify(ctx context.Context, raw string, wantIDToken bool) (*types.TokenClaims, error) {
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, errdefs.NewAuthentication("token is empty")
	}
	token, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			return s.signingKey(ctx, kid)
		},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errdefs.NewAuthentication("token is invalid").WithCause(err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errdefs.NewAuthentication("token carries no claims")
	}

	claims := mapClaims(mc, cfg.RolesClaim)
	if use, _ := mc["token_use"].(string); use != "" {
		if wantIDToken && use != "id" {
			return nil, errdefs.NewAuthentication("token is not an id token")
		}
		if !wantIDToken && use == "id" {
			return nil, errdefs.NewAuthentication("id token presented where an access token is required")
		}
	}
	if wantIDToken && claims.Email == "" {
		return nil, errdefs.NewAuthentication("id token carries no email claim")
	}
	if cfg.Audience != "" && !wantIDToken {
		if !audienceMatches(claims.Audience, mc, cfg.Audience) {
			return nil, errdefs.NewAuthentication("token audience mismatch")
		}
	}
	if wantIDToken && !audienceMatches(claims.Audience, mc, cfg.ClientID) {
		return nil, errdefs.NewAuthentication("id token audience mismatch")
	}
	return claims, nil
}

func (s *authService) GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error) {
	if _, err := s.config(); err != nil {
		return nil, err
	}
	doc, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	if doc.UserinfoEndpoint == "" {
		return s.cognitoUserInfo(ctx, accessToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.UserinfoEndpoint, nil)
	if err != nil {
		return nil, errdefs.NewUnavailable("building userinfo request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, translate(err, "userinfo endpoint")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errdefs.NewAuthentication("userinfo request rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errdefs.NewUnavailable("userinfo endpoint returned %d", resp.StatusCode)
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errdefs.NewUnavailable("userinfo endpoint returned malformed JSON").WithCause(err)
	}
	info := &types.UserInfo{Claims: raw}
	info.Subject, _ = raw["sub"].(string)
	info.Email, _ = raw["email"].(string)
	info.Name, _ = raw["name"].(string)
	return info, nil
}

// cognitoUserInfo resolves identity through the user-pool API when the
// pool exposes no userinfo endpoint.
func (s *authService) cognitoUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error) {
	out, err := s.cip.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: awssdk.String(accessToken),
	})
	if err != nil {
		return nil, translate(err, "user")
	}
	info := &types.UserInfo{
		Subject: awssdk.ToString(out.Username),
		Claims:  map[string]interface{}{},
	}
	for _, attr := range out.UserAttributes {
		name := awssdk.ToString(attr.Name)
		value := awssdk.ToString(attr.Value)
		info.Claims[name] = value
		switch name {
		case "sub":
			info.Subject = value
		case "email":
			info.Email = value
		case "name":
			info.Name = value
		}
	}
	return info, nil
}

func (s *authService) RevokeToken(ctx context.Context, token string) error {
	cfg, err := s.config()
	if err != nil {
		return err
	}
	if token == "" {
		return errdefs.NewValidationPath("token", "token is required")
	}
	doc, err := s.discover(ctx)
	if err != nil {
		return err
	}
	if doc.RevocationEndpoint == "" {
		_, err := s.cip.RevokeToken(ctx, &cognitoidentityprovider.RevokeTokenInput{
			Token:        awssdk.String(token),
			ClientId:     awssdk.String(cfg.ClientID),
			ClientSecret: optionalString(cfg.ClientSecret),
		})
		return translate(err, "token")
	}
	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", cfg.ClientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, doc.RevocationEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errdefs.NewUnavailable("building revocation request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cfg.ClientSecret != "" {
		req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return translate(err, "revocation endpoint")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return errdefs.NewAuthentication("revocation request rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return errdefs.NewUnavailable("revocation endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (s *authService) config() (types.AuthConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.configured {
		return types.AuthConfig{}, errdefs.NewValidation("authentication is not configured")
	}
	return s.cfg, nil
}

// discover fetches and caches the issuer's discovery document.
func (s *authService) discover(ctx context.Context) (*discovery, error) {
	s.mu.RLock()
	doc := s.doc
	issuer := s.cfg.Issuer
	jwksOverride := s.cfg.JWKSURL
	s.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}

	u := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errdefs.NewUnavailable("building discovery request").WithCause(err)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, translate(err, "discovery endpoint")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errdefs.NewUnavailable("discovery endpoint returned %d", resp.StatusCode)
	}
	fetched := &discovery{}
	if err := json.NewDecoder(resp.Body).Decode(fetched); err != nil {
		return nil, errdefs.NewUnavailable("discovery document is malformed").WithCause(err)
	}
	if jwksOverride != "" {
		fetched.JWKSURI = jwksOverride
	}
	s.mu.Lock()
	s.doc = fetched
	s.mu.Unlock()
	return fetched, nil
}

// signingKey resolves the RSA public key for a key id, hitting the
// JWKS endpoint on cache miss.
func (s *authService) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := s.keys.Get(kid); ok {
		return key.(*rsa.PublicKey), nil
	}
	doc, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}
	if doc.JWKSURI == "" {
		return nil, errdefs.NewUnavailable("issuer publishes no JWKS endpoint")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.JWKSURI, nil)
	if err != nil {
		return nil, errdefs.NewUnavailable("building JWKS request").WithCause(err)
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, translate(err, "JWKS endpoint")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errdefs.NewUnavailable("JWKS endpoint returned %d", resp.StatusCode)
	}
	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errdefs.NewUnavailable("JWKS document is malformed").WithCause(err)
	}
	var match *rsa.PublicKey
	for _, k := range payload.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKey(k.N, k.E)
		if err != nil {
			continue
		}
		s.keys.Set(k.Kid, pub, gocache.DefaultExpiration)
		if k.Kid == kid {
			match = pub
		}
	}
	if match == nil {
		return nil, errdefs.NewAuthentication("no signing key matches kid %q", kid)
	}
	return match, nil
}

func rsaKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	exponent := 0
	for _, b := range eb {
		exponent = exponent<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: exponent}, nil
}

func mapClaims(mc jwt.MapClaims, rolesClaim string) *types.TokenClaims {
	claims := &types.TokenClaims{}
	claims.Subject, _ = mc["sub"].(string)
	claims.Issuer, _ = mc["iss"].(string)
	claims.Email, _ = mc["email"].(string)
	claims.Name, _ = mc["name"].(string)
	claims.Scope, _ = mc["scope"].(string)
	switch aud := mc["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}
	if exp, ok := mc["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	if iat, ok := mc["iat"].(float64); ok {
		claims.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	claims.Roles = stringList(mc[rolesClaim])
	if len(claims.Roles) == 0 {
		claims.Roles = stringList(mc["cognito:groups"])
	}
	return claims
}

func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return list
	case string:
		if list == "" {
			return nil
		}
		return strings.Fields(list)
	default:
		return nil
	}
}

func audienceMatches(audience []string, mc jwt.MapClaims, want string) bool {
	for _, a := range audience {
		if a == want {
			return true
		}
	}
	// Cognito access tokens carry the app client in client_id.
	if clientID, _ := mc["client_id"].(string); clientID == want {
		return true
	}
	return false
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return awssdk.String(s)
}

// authClient is the data-plane token validator sharing the service's
// verification path.
type authClient struct {
	svc *authService
}

func (c *authClient) ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error) {
	return c.svc.ValidateToken(ctx, accessToken)
}

func (c *authClient) GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error) {
	return c.svc.GetUserInfo(ctx, accessToken)
}

func (c *authClient) HasScope(claims *types.TokenClaims, scope string) bool {
	if claims == nil {
		return false
	}
	for _, s := range strings.Fields(claims.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

func (c *authClient) HasRole(claims *types.TokenClaims, role string) bool {
	if claims == nil {
		return false
	}
	for _, r := range claims.Roles {
		if r == role {
			return true
		}
	}
	return false
}
