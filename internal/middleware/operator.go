package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bartab/backend/internal/audit"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorHeader names the bartender recording entries when no token is sent.
const OperatorHeader = "X-Operator"

// Operator resolves who is behind the bar for attribution. A bearer token
// signed with secret wins over the X-Operator header; neither is required.
// This is attribution, not access control: an invalid token is rejected but a
// missing one is not.
func Operator(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := strings.TrimSpace(r.Header.Get(OperatorHeader))

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
					return
				}

				name, err := operatorFromToken(parts[1], secret)
				if err != nil {
					http.Error(w, "Invalid token", http.StatusUnauthorized)
					return
				}
				operator = name
			}

			if operator != "" {
				r = r.WithContext(audit.WithOperator(r.Context(), operator))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func operatorFromToken(tokenString, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("token signing secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}

	for _, key := range []string{"operator", "name", "sub"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("token carries no operator claim")
}
