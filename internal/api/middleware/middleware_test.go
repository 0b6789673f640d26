package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowList(t *testing.T) {
	h := CORS([]string{"https://library.example"})(ok)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "allowed", origin: "https://library.example", wantOrigin: "https://library.example"},
		{name: "other", origin: "https://evil.example", wantOrigin: ""},
		{name: "no_origin", origin: "", wantOrigin: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/all_books", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

type stubLimiter struct {
	remaining int
	keys      []string
}

func (s *stubLimiter) Allow(key string) bool {
	s.keys = append(s.keys, key)
	s.remaining--
	return s.remaining >= 0
}

func TestRateLimitKeysByPathAndIP(t *testing.T) {
	limiter := &stubLimiter{remaining: 1}
	h := RateLimit(limiter, "slow down")(ok)

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	req.RemoteAddr = "203.0.113.7:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"slow down: too many requests"}`, rec.Body.String())
	assert.Equal(t, "/user/login|203.0.113.7", limiter.keys[0])
}
