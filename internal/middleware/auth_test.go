package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyAuth(t *testing.T) {
	var gotClient string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClient = GetClientFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := APIKeyAuth(map[string]string{"frontend": "k-123"}, "/api/health")(next)

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		value      string
		wantStatus int
		wantClient string
	}{
		{"bearer", http.MethodPost, "/api/summarize", "Authorization", "Bearer k-123", http.StatusOK, "frontend"},
		{"raw key", http.MethodPost, "/api/summarize", "Authorization", "k-123", http.StatusOK, "frontend"},
		{"x-api-key", http.MethodPost, "/api/summarize", "X-API-Key", "k-123", http.StatusOK, "frontend"},
		{"wrong key", http.MethodPost, "/api/summarize", "Authorization", "Bearer nope", http.StatusUnauthorized, ""},
		{"missing", http.MethodPost, "/api/summarize", "", "", http.StatusUnauthorized, ""},
		{"public path", http.MethodGet, "/api/health", "", "", http.StatusOK, ""},
		{"preflight", http.MethodOptions, "/api/summarize", "", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClient = ""
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantClient, gotClient)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}
