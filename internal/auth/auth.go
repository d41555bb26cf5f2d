// Package auth verifies HS256 bearer tokens on the conversion API.
package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
)

const issuer = "jmap-bridge"

// Claims are the token claims the service issues and accepts.
type Claims struct {
	jwt.RegisteredClaims
}

type Auth struct {
	secret []byte
	now    func() time.Time
}

// New returns a verifier for tokens signed with secret.
func New(secret string) *Auth {
	return &Auth{secret: []byte(secret), now: time.Now}
}

// GenerateToken issues a token for subject valid for ttl.
func (a *Auth) GenerateToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.ValidationError("token subject is required")
	}
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks the signature, the signing method and the expiry.
func (a *Auth) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.AuthError("invalid token: " + err.Error())
	}
	if !token.Valid {
		return nil, errors.AuthError("invalid token")
	}
	return claims, nil
}

// RequireAuth rejects requests without a valid bearer token. The token's
// subject is stored on the request context for logging.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "Authentication required")
			return
		}

		claims, err := a.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logging.WithContext(r.Context()).Warn("Rejected bearer token", logging.Err(err))
			unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := logging.ContextWithSubject(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="jmap-bridge"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: "unauthorized", Message: msg})
}
