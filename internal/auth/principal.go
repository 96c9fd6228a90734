// Package auth issues and verifies access tokens and carries the
// request-scoped Principal through gin handlers.
package auth

import (
	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleVendor   Role = "VENDOR"
	RoleCustomer Role = "CUSTOMER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleCustomer:
		return true
	}
	return false
}

// Principal is the verified caller of a request.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Token  string `json:"-"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

const principalKey = "principal"

// WithPrincipal stores p on the gin context.
func WithPrincipal(c *gin.Context, p Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the principal set by Middleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// MustPrincipal is for handlers mounted behind Middleware.
func MustPrincipal(c *gin.Context) Principal {
	p, _ := PrincipalFrom(c)
	return p
}
