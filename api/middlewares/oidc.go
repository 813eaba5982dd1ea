package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/logger"
)

// AuthSubjectContextKey holds the verified token subject on the gin context
const AuthSubjectContextKey = "authSubject"

// TokenVerifier verifies a raw bearer token and returns its subject
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (string, error)
}

type OIDCAuthenticator interface {
	Middleware() gin.HandlerFunc
}

type OIDCAuthenticatorImpl struct {
	logger   logger.Logger
	verifier TokenVerifier
}

// OIDCAuthenticatorNoop is used when authentication is disabled
type OIDCAuthenticatorNoop struct{}

type idTokenVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v *idTokenVerifier) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

// NewOIDCAuthenticatorMiddleware discovers the issuer when auth is enabled
func NewOIDCAuthenticatorMiddleware(log logger.Logger, cfg config.Config) (OIDCAuthenticator, error) {
	if !cfg.EnableAuth {
		return &OIDCAuthenticatorNoop{}, nil
	}
	if cfg.OIDC == nil {
		return nil, fmt.Errorf("oidc configuration is missing")
	}

	provider, err := oidc.NewProvider(context.Background(), cfg.OIDC.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", cfg.OIDC.IssuerURL, err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID})
	return NewOIDCAuthenticatorWithVerifier(log, &idTokenVerifier{verifier: verifier}), nil
}

func NewOIDCAuthenticatorWithVerifier(log logger.Logger, verifier TokenVerifier) *OIDCAuthenticatorImpl {
	return &OIDCAuthenticatorImpl{logger: log, verifier: verifier}
}

func (a *OIDCAuthenticatorNoop) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

// Middleware rejects requests without a valid bearer token. The health
// endpoint stays public.
func (a *OIDCAuthenticatorImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
			return
		}

		subject, err := a.verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			a.logger.Warn("rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(AuthSubjectContextKey, subject)
		c.Next()
	}
}

// Subject returns the authenticated subject, if any
func Subject(c *gin.Context) (string, bool) {
	subject := c.GetString(AuthSubjectContextKey)
	return subject, subject != ""
}
