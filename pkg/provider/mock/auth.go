package mock

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

const mockTokenLifetime = time.Hour

// authService issues and verifies HMAC-signed tokens. The signing key
// derives from the client secret, so tokens minted by one
// configuration do not verify under another.
type authService struct {
	w *world

	mu      sync.RWMutex
	cfg     types.AuthConfig
	key     []byte
	revoked map[string]bool

	// refresh maps refresh tokens to the subject they were issued for.
	refresh map[string]string
}

func newAuthService(w *world) *authService {
	return &authService{
		w:       w,
		revoked: make(map[string]bool),
		refresh: make(map[string]string),
	}
}

func (s *authService) Configure(cfg types.AuthConfig) error {
	if cfg.Issuer == "" {
		return errdefs.NewValidationPath("/issuer", "issuer is required")
	}
	if cfg.ClientID == "" {
		return errdefs.NewValidationPath("/clientId", "clientId is required")
	}
	if cfg.RolesClaim == "" {
		cfg.RolesClaim = "roles"
	}
	secret := cfg.ClientSecret
	if secret == "" {
		secret = "mock-signing-secret"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.key = []byte("hmac:" + secret)
	return nil
}

func (s *authService) GetAuthorizationURL(params types.AuthorizationURLParams) (string, error) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	if cfg.Issuer == "" {
		return "", errdefs.NewValidation("authentication service is not configured")
	}
	if params.RedirectURI == "" {
		return "", errdefs.NewValidationPath("/redirectUri", "redirectUri is required")
	}

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
	return strings.TrimSuffix(cfg.Issuer, "/") + "/oauth2/authorize?" + q.Encode(), nil
}

func (s *authService) ExchangeCodeForTokens(ctx context.Context, code, redirectURI string) (*types.TokenSet, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, errdefs.NewValidationPath("/code", "code is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Issuer == "" {
		return nil, errdefs.NewValidation("authentication service is not configured")
	}
	subject := "mock-user-" + code
	return s.issueTokens(subject, "openid email profile")
}

func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (*types.TokenSet, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.refresh[refreshToken]
	if !ok || s.revoked[refreshToken] {
		return nil, errdefs.NewAuthentication("refresh token is not valid")
	}
	return s.issueTokens(subject, "openid email profile")
}

func (s *authService) ValidateToken(ctx context.Context, accessToken string) (*types.TokenClaims, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	return s.verify(accessToken)
}

func (s *authService) VerifyIDToken(ctx context.Context, idToken string) (*types.TokenClaims, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	claims, err := s.verify(idToken)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errdefs.NewAuthentication("token is not an ID token")
	}
	return claims, nil
}

func (s *authService) GetUserInfo(ctx context.Context, accessToken string) (*types.UserInfo, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	claims, err := s.verify(accessToken)
	if err != nil {
		return nil, err
	}
	return &types.UserInfo{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Claims: map[string]interface{}{
			"sub":   claims.Subject,
			"email": claims.Email,
			"name":  claims.Name,
			"scope": claims.Scope,
		},
	}, nil
}

func (s *authService) RevokeToken(ctx context.Context, token string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
	return nil
}

// issueTokens mints a fresh token set; caller holds s.mu.
func (s *authService) issueTokens(subject, scope string) (*types.TokenSet, error) {
	now := time.Now()
	base := jwt.MapClaims{
		"iss":   s.cfg.Issuer,
		"aud":   s.cfg.Audience,
		"sub":   subject,
		"iat":   now.Unix(),
		"exp":   now.Add(mockTokenLifetime).Unix(),
		"scope": scope,
	}

	access, err := s.sign(base)
	if err != nil {
		return nil, err
	}

	idClaims := jwt.MapClaims{}
	for k, v := range base {
		idClaims[k] = v
	}
	idClaims["email"] = subject + "@mock.lcplatform.dev"
	idClaims["name"] = subject
	id, err := s.sign(idClaims)
	if err != nil {
		return nil, err
	}

	refresh := s.w.nextID("refresh-token")
	s.refresh[refresh] = subject
	return &types.TokenSet{
		AccessToken:  access,
		IDToken:      id,
		RefreshToken: refresh,
		ExpiresIn:    int(mockTokenLifetime.Seconds()),
		TokenType:    "Bearer",
		Scope:        scope,
	}, nil
}

func (s *authService) sign(claims jwt.MapClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errdefs.NewUnavailable("signing token").WithCause(err)
	}
	return token, nil
}

// verify checks signature, issuer, audience, expiry, and revocation.
func (s *authService) verify(raw string) (*types.TokenClaims, error) {
	s.mu.RLock()
	cfg := s.cfg
	key := s.key
	revoked := s.revoked[raw]
	s.mu.RUnlock()
	if cfg.Issuer == "" {
		return nil, errdefs.NewValidation("authentication service is not configured")
	}
	if revoked {
		return nil, errdefs.NewAuthentication("token has been revoked")
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, errdefs.NewAuthentication("token is not valid").WithCause(err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errdefs.NewAuthentication("token carries no claims")
	}
	if cfg.Audience != "" {
		if aud, _ := mc.GetAudience(); !containsString(aud, cfg.Audience) {
			return nil, errdefs.NewAuthentication("token audience mismatch")
		}
	}

	claims := &types.TokenClaims{}
	if v, _ := mc.GetSubject(); v != "" {
		claims.Subject = v
	}
	if v, _ := mc.GetIssuer(); v != "" {
		claims.Issuer = v
	}
	if aud, _ := mc.GetAudience(); len(aud) > 0 {
		claims.Audience = aud
	}
	if t, _ := mc.GetExpirationTime(); t != nil {
		claims.ExpiresAt = t.Time
	}
	if t, _ := mc.GetIssuedAt(); t != nil {
		claims.IssuedAt = t.Time
	}
	if v, ok := mc["email"].(string); ok {
		claims.Email = v
	}
	if v, ok := mc["name"].(string); ok {
		claims.Name = v
	}
	if v, ok := mc["scope"].(string); ok {
		claims.Scope = v
	}
	rolesClaim := cfg.RolesClaim
	if rolesClaim == "" {
		rolesClaim = "roles"
	}
	if list, ok := mc[rolesClaim].([]interface{}); ok {
		for _, r := range list {
			if s, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, s)
			}
		}
	}
	return claims, nil
}
