// Package auth verifies bearer tokens issued by an external identity
// provider. Per spec, user issuance (registration/login) is out of scope -
// this package only decodes and validates a JWT a connection presents, and
// returns the user id it carries. The Gateway keeps that id on the
// connection as its rate-limit key; it is not attached to a seat.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of JWT claims this server trusts.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ErrNoToken is returned by ExtractBearer when no Authorization header is
// present - not a failure, since authentication is optional.
var ErrNoToken = errors.New("auth: no bearer token presented")

// Verifier validates a bearer token string and returns the claimed user id.
type Verifier interface {
	Verify(tokenString string) (userID string, err error)
}

type jwtVerifier struct {
	secret []byte
}

// NewVerifier builds a Verifier that checks HMAC-signed tokens against secret.
func NewVerifier(secret string) Verifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if claims.UserID == "" {
		return "", errors.New("auth: token missing user_id claim")
	}
	return claims.UserID, nil
}

// ExtractBearer pulls the token out of a raw Authorization header value
// ("Bearer <token>"), or out of a bare token string passed directly (the
// Gateway accepts either, since some clients cannot set headers on a
// WebSocket upgrade request).
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		if rest == "" {
			return "", ErrNoToken
		}
		return rest, nil
	}
	return header, nil
}
