package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the opaque admin session token.
const SessionHeader = "X-Session-Token"

const adminKey = "admin"

// AdminAuth gates admin routes on a backend-verified session. Verification
// failure is denial: an infrastructure error yields 503, never a pass-through
// on locally cached state.
func AdminAuth(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}
		admin, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ErrSessionInvalid) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session invalid or expired"})
				return
			}
			log.Printf("session validation failed: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization backend unavailable, retry"})
			return
		}
		c.Set(adminKey, *admin)
		c.Next()
	}
}

// AdminFrom returns the verified admin identity set by AdminAuth.
func AdminFrom(c *gin.Context) (Admin, bool) {
	v, ok := c.Get(adminKey)
	if !ok {
		return Admin{}, false
	}
	a, ok := v.(Admin)
	return a, ok
}

// RequireRole gates a route on the bearer user token's role claim. This is a
// local check only; no backend round trip happens here. A caller holding the
// wrong role gets the landing path for its actual role instead of a login
// redirect.
func RequireRole(role, signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := ParseToken(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "wrong role for this resource",
				"landing": landingFor(claims.Role),
			})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

func landingFor(role string) string {
	if role == RoleAdmin {
		return "/v1/admin/concerns"
	}
	return "/v1/concerns"
}
