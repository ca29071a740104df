package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/autodetail/internal/auditctx"
	iauth "github.com/charlesng35/autodetail/internal/auth"
	"github.com/charlesng35/autodetail/pkg/errors"
	"github.com/charlesng35/autodetail/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxPrincipalKey = "authPrincipal"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		setPrincipal(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the principal when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := jwt.ValidateAccessToken(token); err == nil {
				setPrincipal(c, claims)
			}
		}
		c.Next()
	}
}

// PrincipalFromContext returns the identity resolved by Auth or OptionalAuth.
func PrincipalFromContext(c *gin.Context) (iauth.Principal, bool) {
	value, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return iauth.Principal{}, false
	}
	principal, ok := value.(iauth.Principal)
	return principal, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[7:])
	return token, token != ""
}

func setPrincipal(c *gin.Context, claims *iauth.Claims) {
	principal := claims.Principal()
	c.Set(CtxClaimsKey, claims)
	c.Set(CtxPrincipalKey, principal)

	// Propagate identity into request context for audit entries
	ctx := auditctx.Merge(c.Request.Context(), auditctx.Actor{
		AccountID: principal.AccountID,
		Email:     principal.Email,
	})
	c.Request = c.Request.WithContext(ctx)
}
