/**
 * @description
 * Caller authentication for the tool endpoints. Server-to-server callers send
 * X-Internal-API-Key; other callers present an HS256 bearer token whose sub
 * claim names them. The Monzo access token is never accepted from callers.
 */
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const callerContextKey = contextKey("caller")

// InternalCaller identifies requests authenticated with the internal API key.
const InternalCaller = "internal"

// ToolAuthMiddleware authenticates the caller and stores its identity in the
// request context. When neither an internal key nor a signing secret is
// configured, requests pass through identified by their remote host.
func ToolAuthMiddleware(internalAPIKey, jwtSecret string) func(http.Handler) http.Handler {
	internalAPIKey = strings.TrimSpace(internalAPIKey)
	jwtSecret = strings.TrimSpace(jwtSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalAPIKey == "" && jwtSecret == "" {
				next.ServeHTTP(w, withCaller(r, "anonymous:"+remoteHost(r)))
				return
			}

			if provided := r.Header.Get("X-Internal-API-Key"); provided != "" && internalAPIKey != "" {
				if subtle.ConstantTimeCompare([]byte(provided), []byte(internalAPIKey)) != 1 {
					writeAuthError(w, "invalid internal API key")
					return
				}
				next.ServeHTTP(w, withCaller(r, InternalCaller))
				return
			}

			if jwtSecret == "" {
				writeAuthError(w, "internal API key required")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "Authorization header required")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeAuthError(w, "Invalid Authorization header format")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeAuthError(w, "Invalid token")
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || strings.TrimSpace(subject) == "" {
				writeAuthError(w, "Subject not found in token")
				return
			}

			next.ServeHTTP(w, withCaller(r, subject))
		})
	}
}

func withCaller(r *http.Request, caller string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), callerContextKey, caller))
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// GetCaller retrieves the authenticated caller identity from the request context.
func GetCaller(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerContextKey).(string)
	return caller, ok
}
