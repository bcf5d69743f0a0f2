package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func callerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := GetCaller(r.Context())
		w.Write([]byte(caller))
	})
}

func TestToolAuthMiddleware(t *testing.T) {
	validToken := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user_123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expiredToken := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "user_123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongSecretToken := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "user_123"})
	hs512Token := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"sub": "user_123"})
	noSubjectToken := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"scope": "tools"})

	tests := []struct {
		name       string
		apiKey     string
		secret     string
		headers    map[string]string
		wantStatus int
		wantCaller string
	}{
		{name: "internal key", apiKey: "k", secret: testSecret, headers: map[string]string{"X-Internal-API-Key": "k"}, wantStatus: http.StatusOK, wantCaller: InternalCaller},
		{name: "wrong internal key", apiKey: "k", secret: testSecret, headers: map[string]string{"X-Internal-API-Key": "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "valid bearer", apiKey: "k", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + validToken}, wantStatus: http.StatusOK, wantCaller: "user_123"},
		{name: "expired bearer", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + expiredToken}, wantStatus: http.StatusUnauthorized},
		{name: "wrong secret", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + wrongSecretToken}, wantStatus: http.StatusUnauthorized},
		{name: "disallowed algorithm", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + hs512Token}, wantStatus: http.StatusUnauthorized},
		{name: "missing subject", secret: testSecret, headers: map[string]string{"Authorization": "Bearer " + noSubjectToken}, wantStatus: http.StatusUnauthorized},
		{name: "malformed header", secret: testSecret, headers: map[string]string{"Authorization": validToken}, wantStatus: http.StatusUnauthorized},
		{name: "no credentials", apiKey: "k", secret: testSecret, wantStatus: http.StatusUnauthorized},
		{name: "key only without header", apiKey: "k", wantStatus: http.StatusUnauthorized},
		{name: "auth disabled", wantStatus: http.StatusOK, wantCaller: "anonymous:192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ToolAuthMiddleware(tt.apiKey, tt.secret)(callerEcho())
			req := httptest.NewRequest(http.MethodGet, "/tools", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != tt.wantCaller {
				t.Fatalf("expected caller %q, got %q", tt.wantCaller, rec.Body.String())
			}
		})
	}
}
