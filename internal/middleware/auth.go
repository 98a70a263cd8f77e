package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/volunteerhub/internal/auth"
	"github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

const (
	CtxClaimsKey  = "authClaims"
	CtxUserIDKey  = "userID"
	CtxIsAdminKey = "isAdmin"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			// All validation failures surface as 401.
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		SetIdentity(c, claims)
		c.Next()
	}
}

// SetIdentity stores the authenticated principal on the request context.
func SetIdentity(c *gin.Context, claims *iauth.Claims) {
	c.Set(CtxClaimsKey, claims)
	c.Set(CtxUserIDKey, claims.UserID)
	c.Set(CtxIsAdminKey, claims.IsAdmin)
}

// RequireAdmin rejects callers whose token does not carry the administrator flag.
// It must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserIDKey) == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !c.GetBool(CtxIsAdminKey) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
