package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/notes-api/shared/auth"
)

func newTestGateway() (*AuthGateway, *auth.JWTAuthenticator) {
	jwtAuth := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: "gateway-secret", Issuer: "notes-api"})
	logger := zerolog.Nop()
	return NewAuthGateway(jwtAuth, &logger), jwtAuth
}

func TestAuthGateway_Require(t *testing.T) {
	gateway, jwtAuth := newTestGateway()

	valid, _, err := jwtAuth.IssueToken("user-1", "alice@x.com", time.Hour)
	require.NoError(t, err)
	expired, _, err := jwtAuth.IssueToken("user-1", "alice@x.com", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantCalled bool
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Access token missing"}`},
		{name: "bearer without token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Access token missing"}`},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"Access token missing"}`},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid or expired token"}`},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusForbidden, wantBody: `{"error":"Invalid or expired token"}`},
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusNoContent, wantCalled: true},
		{name: "lowercase scheme", header: "bearer " + valid, wantStatus: http.StatusNoContent, wantCalled: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				called bool
				got    auth.Identity
			)
			handler := gateway.Require(func(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
				called = true
				got = identity
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantCalled, called)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
			if tc.wantCalled {
				assert.Equal(t, auth.Identity{UserID: "user-1", Email: "alice@x.com"}, got)
			}
		})
	}
}
