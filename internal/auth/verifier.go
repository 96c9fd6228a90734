package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier accepts locally issued HS256 access tokens and, when a JWKS is
// configured, RS256 tokens from the external identity provider.
type Verifier struct {
	local *Issuer

	jwks      *JWKS
	issuer    string
	audience  string
	roleClaim string
	now       func() time.Time
}

type VerifierOption func(*Verifier)

// WithProvider enables RS256 provider tokens resolved through jwks.
func WithProvider(jwks *JWKS, issuer, audience, roleClaim string) VerifierOption {
	return func(v *Verifier) {
		v.jwks = jwks
		v.issuer = issuer
		v.audience = audience
		v.roleClaim = roleClaim
	}
}

func NewVerifier(local *Issuer, opts ...VerifierOption) *Verifier {
	v := &Verifier{local: local, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify returns the principal carried by tokenString.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Principal, error) {
	alg, err := peekAlg(tokenString)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	if alg == jwt.SigningMethodRS256.Alg() && v.jwks != nil {
		return v.verifyProvider(tokenString)
	}
	claims, err := v.local.Parse(tokenString, TokenAccess)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: claims.Subject, Role: claims.Role, Token: tokenString}, nil
}

func peekAlg(tokenString string) (string, error) {
	t, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", err
	}
	return t.Method.Alg(), nil
}

func (v *Verifier) verifyProvider(tokenString string) (Principal, error) {
	claims := jwt.MapClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return Principal{}, ErrInvalidToken
	}
	role := RoleCustomer
	if r, ok := claims[v.roleClaim].(string); ok && Role(r).Valid() {
		role = Role(r)
	}
	return Principal{UserID: sub, Role: role, Token: tokenString}, nil
}
