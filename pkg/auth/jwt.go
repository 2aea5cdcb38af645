// Package auth verifies the bearer tokens that guard admin endpoints. Token
// issuance belongs to the identity service; Issue exists for tooling and
// tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotAdmin     = errors.New("admin role required")
)

type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

func (v *Verifier) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse validates the signature (HS256 only) and expiry of tokenStr.
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (v *Verifier) RequireAdmin(tokenStr string) (*Claims, error) {
	c, err := v.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Role != RoleAdmin {
		return c, ErrNotAdmin
	}
	return c, nil
}
