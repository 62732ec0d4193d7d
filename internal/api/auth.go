package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth handles API authentication. Requests carry either the
// configured API key or a bearer token issued from it.
type Auth struct {
	secret []byte
	expiry time.Duration
	apiKey string
}

// NewAuth creates an authenticator. With neither a secret nor an API
// key configured, authentication is disabled.
func NewAuth(secret string, expiry time.Duration, apiKey string) *Auth {
	return &Auth{
		secret: []byte(secret),
		expiry: expiry,
		apiKey: apiKey,
	}
}

// Enabled reports whether any credential is configured.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0 || a.apiKey != ""
}

// GenerateToken issues a new JWT.
func (a *Auth) GenerateToken() (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}

	expiresAt := time.Now().Add(a.expiry)
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Issuer:    "mailbridge",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// validateToken validates and parses a JWT.
func (a *Auth) validateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// Middleware returns authentication middleware. Supports both Bearer
// token (JWT) and X-API-Key header authentication.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			if a.apiKey == "" {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key authentication not configured")
				return
			}
			if apiKey != a.apiKey {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
			return
		}

		if err := a.validateToken(parts[1]); err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
