package auth

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"clipvault/internal/config"
)

// OwnerContextKey is the gin context key carrying the authenticated owner id.
const OwnerContextKey = "ownerID"

// Validator verifies bearer tokens against a JWKS endpoint. The rest of the
// service only ever sees the resulting owner identity string; token
// verification stays entirely inside this boundary.
type Validator struct {
	cfg    *config.Config
	log    zerolog.Logger
	jwks   atomic.Pointer[keyfunc.JWKS]
	issuer string
}

// NewValidator returns nil when auth is disabled; callers treat a nil
// validator as "no gate".
func NewValidator(cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}

	v := &Validator{
		cfg:    cfg,
		log:    log.With().Str("component", "auth").Logger(),
		issuer: cfg.AuthIssuer,
	}

	// JWKS fetch happens in the background so a slow identity provider does
	// not block startup; requests fail closed until the first fetch lands.
	go v.refreshJWKS()

	return v, nil
}

func (v *Validator) refreshJWKS() {
	jwks, err := keyfunc.Get(v.cfg.AuthJWKSURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			v.log.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		v.log.Error().Err(err).Str("url", v.cfg.AuthJWKSURL).Msg("initial jwks fetch failed")
		return
	}
	v.jwks.Store(jwks)
	v.log.Info().Str("url", v.cfg.AuthJWKSURL).Msg("jwks loaded")
}

// Ready reports whether the key set has been fetched.
func (v *Validator) Ready() bool {
	return v.jwks.Load() != nil
}

// Verify checks one bearer token and returns the subject as the owner id.
func (v *Validator) Verify(token string) (string, error) {
	jwks := v.jwks.Load()
	if jwks == nil {
		return "", jwt.ErrTokenUnverifiable
	}

	parsed, err := jwt.Parse(token, jwks.Keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// owner identity on the request context.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		owner, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			v.log.Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(OwnerContextKey, owner)
		c.Next()
	}
}
