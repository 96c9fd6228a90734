package auth

import (
	"context"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKS resolves the identity provider's signing keys by kid. The set is
// cached and refreshed in the background; an unknown kid triggers a
// rate-limited refetch.
type JWKS struct {
	kf keyfunc.Keyfunc
}

// NewJWKS starts watching url until ctx is done. An unreachable provider is
// not fatal here; tokens fail to verify until the first fetch succeeds.
func NewJWKS(ctx context.Context, url string) (*JWKS, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("jwks %s: %w", url, err)
	}
	return &JWKS{kf: kf}, nil
}

// Keyfunc looks up the key for t's kid.
func (j *JWKS) Keyfunc(t *jwt.Token) (any, error) {
	return j.kf.Keyfunc(t)
}
