package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"asset-registry-backend/config"
	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/model"
)

// entitySystem is the audit target type for session events.
const entitySystem = "System"

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service is the thin session glue in front of the registry. It checks
// the configured admin credential, issues bearer tokens and writes the
// session audit entries through the same recorder contract the
// coordinator uses.
type Service struct {
	cfg      config.AuthConfig
	recorder *audit.Recorder
}

// NewService creates an auth service over the given recorder.
func NewService(cfg config.AuthConfig, recorder *audit.Recorder) *Service {
	return &Service{cfg: cfg, recorder: recorder}
}

// Login verifies the credential and returns a signed token. Failed
// attempts are audited as LOGIN_FAILED, successful ones as LOGIN.
func (s *Service) Login(ctx context.Context, username, password, ip string) (string, error) {
	if username != s.cfg.AdminUser ||
		bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) != nil {
		s.recorder.Append(ctx, username, model.VerbLoginFailed, entitySystem, "",
			"Failed login attempt", ip)
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.recorder.Append(ctx, username, model.VerbLogin, entitySystem, "", "User logged in", ip)
	return token, nil
}

// Logout audits the session end. Tokens are stateless, so there is
// nothing to revoke server-side.
func (s *Service) Logout(ctx context.Context, actor, ip string) {
	s.recorder.Append(ctx, actor, model.VerbLogout, entitySystem, "", "User logged out", ip)
}

// VerifyToken parses a bearer token and returns the actor name.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
