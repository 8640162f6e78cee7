package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates HS256-signed ID tokens issued by the configured
// identity provider and returns the subject claim as the user ID.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier builds a verifier for the given shared secret. issuer is
// optional; when set, tokens from any other issuer are rejected.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(ctx context.Context, bearerToken string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(bearerToken, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidCredential
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", ErrInvalidCredential
	}
	if claims.Subject == "" {
		return "", ErrInvalidCredential
	}

	return claims.Subject, nil
}
