package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
)

// BearerToken extracts the token from the Authorization header, falling back
// to the "token" query parameter used by websocket clients.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query("token")
}

// Middleware verifies the bearer token once per request and stores the
// resulting Principal on the context.
func Middleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			_ = c.Error(apperr.Unauthorized("missing or invalid Authorization header"))
			c.Abort()
			return
		}
		p, err := v.Verify(c.Request.Context(), tok)
		if err != nil {
			_ = c.Error(apperr.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}
		WithPrincipal(c, p)
		c.Next()
	}
}

// Optional verifies a bearer token when one is present and otherwise lets
// the request through anonymously. Invalid tokens are treated as absent.
func Optional(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := BearerToken(c); tok != "" {
			if p, err := v.Verify(c.Request.Context(), tok); err == nil {
				WithPrincipal(c, p)
			}
		}
		c.Next()
	}
}

// Viewer returns the principal for handlers behind Optional, or nil.
func Viewer(c *gin.Context) *Principal {
	if p, ok := PrincipalFrom(c); ok {
		return &p
	}
	return nil
}

// RequireRoles ensures the authenticated principal has one of the allowed roles.
func RequireRoles(allowed ...Role) gin.HandlerFunc {
	set := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			_ = c.Error(apperr.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		if _, ok := set[p.Role]; !ok {
			_ = c.Error(apperr.Forbidden("forbidden: insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}
