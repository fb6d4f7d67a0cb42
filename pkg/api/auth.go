package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TriageClaims are the claims carried by back-office triage tokens.
type TriageClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// IssueTriageToken mints an HS256 bearer token for the triage surface.
// Used by operational tooling; the gateway itself only verifies.
func IssueTriageToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TriageClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  jwt.ClaimStrings{"capture.triage"},
		},
		Role: "triage",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign triage token: %w", err)
	}
	return signed, nil
}

// RequireTriageAuth wraps next with HS256 bearer-token verification. The
// shopper-facing capture endpoints stay unauthenticated; only the triage
// listing carries back-office data and needs this gate.
func RequireTriageAuth(secret []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			WriteUnauthorized(w, "")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &TriageClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
