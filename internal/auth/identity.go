package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the payload the identity provider signs into the token
// the SPA receives in its redirect fragment.
type IdentityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// IdentityVerifier validates provider-issued session tokens. Tokens are
// HMAC-signed JWTs carrying the authenticated profile.
type IdentityVerifier struct {
	secret string
}

// NewIdentityVerifier builds a verifier for the shared provider secret.
func NewIdentityVerifier(secret string) *IdentityVerifier {
	return &IdentityVerifier{secret: secret}
}

// Verify checks signature and expiry and returns the embedded profile.
func (v *IdentityVerifier) Verify(tokenString string) (*IdentityClaims, error) {
	if v == nil || v.secret == "" {
		return nil, ErrInvalidIdentityToken
	}
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidIdentityToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidIdentityToken
	}
	return claims, nil
}
