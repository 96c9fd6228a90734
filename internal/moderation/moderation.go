// Package moderation enforces bans and per-action capability toggles on
// write paths.
package moderation

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/user"
)

// Source reads a user's current moderation flags. Both the Postgres user
// repository and the gRPC directory client satisfy it.
type Source interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Gate checks flags on every call; nothing is cached, so a ban applies to
// the very next request.
type Gate struct {
	src Source
}

func NewGate(src Source) *Gate { return &Gate{src: src} }

// remoteChecker is implemented by the directory client, which evaluates the
// flags server-side.
type remoteChecker interface {
	CheckAccess(ctx context.Context, id string, action user.Action) (bool, string, error)
}

func (g *Gate) Check(ctx context.Context, userID string, action user.Action) error {
	if rc, ok := g.src.(remoteChecker); ok {
		allowed, reason, err := rc.CheckAccess(ctx, userID, action)
		switch {
		case errors.Is(err, user.ErrNotFound):
			return apperr.Unauthorized("unknown user")
		case err != nil:
			return apperr.Internal(err)
		case allowed:
			return nil
		case reason == user.ErrBanned.Error():
			return apperr.Forbidden("Account is banned")
		}
		return apperr.Forbidden("%s", reason)
	}

	u, err := g.src.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperr.Unauthorized("unknown user")
		}
		return apperr.Internal(err)
	}
	if err := u.CheckAccess(action); err != nil {
		if errors.Is(err, user.ErrBanned) {
			return apperr.Forbidden("Account is banned")
		}
		var denied *user.DeniedError
		if errors.As(err, &denied) {
			return apperr.Forbidden("%s", denied.Error())
		}
		return apperr.Internal(err)
	}
	return nil
}

// Require aborts the request with 403 unless the authenticated user may
// perform action. It must run after auth.Middleware.
func (g *Gate) Require(action user.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c)
		if !ok {
			_ = c.Error(apperr.Unauthorized("missing credentials"))
			c.Abort()
			return
		}
		if err := g.Check(c.Request.Context(), p.UserID, action); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
