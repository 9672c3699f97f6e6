package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWT returns middleware that validates HS256 JWTs using the given shared secret.
// The subject claim becomes the authenticated user id; the core trusts it
// unconditionally downstream.
func JWT(secret []byte, iss, aud string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				w.WriteHeader(401)
				return
			}

			uid, err := ParseSubject(strings.TrimPrefix(h, "Bearer "), secret, iss, aud)
			if err != nil {
				w.WriteHeader(401)
				return
			}

			next.ServeHTTP(w, r.WithContext(InjectUserID(r.Context(), uid)))
		})
	}
}

// ParseSubject validates a token and returns its subject. The WebSocket
// handshake carries the token as a query parameter instead of a header,
// so validation is shared here.
func ParseSubject(tok string, secret []byte, iss, aud string) (string, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		// Only accept HMAC. A token signed with "none" or RSA must fail.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(iss), jwt.WithAudience(aud))

	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
