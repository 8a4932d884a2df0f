package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenInvalid = errors.New("invalid token")

// Claims is the identity payload embedded in a signed bearer token
type Claims struct {
	Subject string
	Role    string
	Email   string
}

// TokenIssuer signs and verifies HS256 bearer tokens. It is constructed
// once with the configured secret and expiry instead of reading global
// configuration on every call.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (t *TokenIssuer) Sign(c Claims) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   c.Subject,
		"role":  c.Role,
		"email": c.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(t.expiry).Unix(),
	})

	return token.SignedString(t.secret)
}

// Verify parses a signed token and returns its claims. Expired or
// tampered tokens fail with ErrTokenInvalid.
func (t *TokenIssuer) Verify(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(tk *jwt.Token) (any, error) {
		if tk.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", tk.Method.Alg())
		}

		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	sub, ok := mc["sub"].(string)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	role, _ := mc["role"].(string)
	email, _ := mc["email"].(string)

	return Claims{
		Subject: sub,
		Role:    role,
		Email:   email,
	}, nil
}
