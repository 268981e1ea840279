package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsContextKey = "finconsole.auth.claims"

func ClaimsFromGin(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// Middleware verifies the bearer token and stores claims on the gin context.
func Middleware(j JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		claims, err := j.Verify(tok)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// Protect guards the API surface while keeping infra endpoints open. With
// an empty secret the console runs unauthenticated (local development).
func Protect(j JWT) gin.HandlerFunc {
	verify := Middleware(j)
	return func(c *gin.Context) {
		if len(j.Secret) == 0 {
			c.Next()
			return
		}
		p := c.Request.URL.Path
		if p == "/healthz" || p == "/readyz" {
			c.Next()
			return
		}
		if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/swagger") {
			verify(c)
			return
		}
		c.Next()
	}
}

// RequireRole gates mutating routes: the caller's role claim must match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromGin(c)
		if !ok {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		if !strings.EqualFold(claims.Role, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "role " + role + " required",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
