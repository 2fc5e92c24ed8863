package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	incoming := uuid.NewString()
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set(RequestIDHeader, incoming)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\nInjected: yes")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "not-a-uuid\r\nInjected: yes", seen)
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}

func TestAPIKey(t *testing.T) {
	handler := APIKey("s3cret")(okHandler())

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"valid token", http.MethodGet, "/records", "Bearer s3cret", http.StatusOK},
		{"lowercase bearer", http.MethodGet, "/records", "bearer s3cret", http.StatusOK},
		{"missing header", http.MethodGet, "/records", "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/records", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/extract", "Bearer nope", http.StatusUnauthorized},
		{"extra parts", http.MethodGet, "/records", "Bearer s3cret extra", http.StatusUnauthorized},
		{"health open", http.MethodGet, "/health", "", http.StatusOK},
		{"preflight open", http.MethodOptions, "/extract", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestAPIKey_Disabled(t *testing.T) {
	handler := APIKey("")(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
