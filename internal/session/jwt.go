// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/murmur/internal/logging"
)

// MinJWTSecretLength is the shortest accepted HMAC secret.
const MinJWTSecretLength = 32

// ErrWeakSecret is returned for a JWT secret shorter than MinJWTSecretLength.
var ErrWeakSecret = errors.New("jwt secret must be at least 32 characters")

// Claims are the JWT claims the gateway reads. The user id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTAuthenticator resolves the user of an upgrade request from an HS256
// token in the Authorization header or the session cookie.
type JWTAuthenticator struct {
	secret     []byte
	cookieName string
	timeout    time.Duration
}

// NewJWTAuthenticator creates an authenticator. timeout is only used by
// GenerateToken.
func NewJWTAuthenticator(secret, cookieName string, timeout time.Duration) (*JWTAuthenticator, error) {
	if len(secret) < MinJWTSecretLength {
		return nil, ErrWeakSecret
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if timeout <= 0 {
		timeout = 24 * time.Hour
	}
	return &JWTAuthenticator{secret: []byte(secret), cookieName: cookieName, timeout: timeout}, nil
}

// GenerateToken signs a token for userID.
func (a *JWTAuthenticator) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token.
func (a *JWTAuthenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// Authenticate returns the token subject, or "" for a missing, invalid or
// expired token. Token validation has no backend, so it never errors.
func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	raw := a.token(r)
	if raw == "" {
		return "", nil
	}
	claims, err := a.ValidateToken(raw)
	if err != nil {
		logging.Ctx(r.Context()).Debug().
			Err(err).
			Str("token", logging.SanitizeToken(raw)).
			Msg("jwt rejected")
		return "", nil
	}
	return claims.Subject, nil
}

func (a *JWTAuthenticator) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(v)
		}
	}
	if c, err := r.Cookie(a.cookieName); err == nil {
		return c.Value
	}
	return ""
}
