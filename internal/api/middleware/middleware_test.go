package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/courtroom-studio/engine/internal/api/types"
	"github.com/courtroom-studio/engine/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	restore := logger.Replace(zap.NewNop())
	code := m.Run()
	restore()
	os.Exit(code)
}

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"user": GetUserID(r.Context()),
			"role": GetUserRole(r.Context()),
		})
	})
}

func TestAuth(t *testing.T) {
	h := Auth(secret)(echoIdentity())
	exp := time.Now().Add(time.Hour).Unix()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "role": "student", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"no exp", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "role": "student"}), http.StatusUnauthorized},
		{"no sub", "Bearer " + sign(t, jwt.MapClaims{"role": "student", "exp": exp}), http.StatusUnauthorized},
		{"valid", "Bearer " + sign(t, jwt.MapClaims{"sub": "u1", "role": "instructor", "exp": exp}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, tc.status, rr.Code)

			if tc.status == http.StatusOK {
				var got map[string]string
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, "u1", got["user"])
				assert.Equal(t, "instructor", got["role"])
				return
			}
			var resp types.APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "unauthorized", resp.Error.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Auth(secret)(RequireRole("admin", "instructor")(echoIdentity()))
	exp := time.Now().Add(time.Hour).Unix()

	for role, status := range map[string]int{"admin": 200, "instructor": 200, "student": 403, "": 403} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": "u1", "role": role, "exp": exp}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, status, rr.Code, role)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewLimiter(0.001, 2))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
}

func TestRequestIDAndRecovery(t *testing.T) {
	h := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
}
