package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesUserAndReturnsToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", map[string]string{"username": "alice", "password": "p1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp struct {
		User        map[string]any `json:"user"`
		AccessToken string         `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]any{"id": float64(1), "username": "alice"}, resp.User)
	require.NotEmpty(t, resp.AccessToken)

	claims, err := env.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "p1")

	rec := env.do(t, http.MethodPost, "/register", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username already exists", decodeMap(t, rec)["message"])
}

func TestRegister_MissingCredentials(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty object", map[string]string{}},
		{"missing password", map[string]string{"username": "bob"}},
		{"empty username", map[string]string{"username": "", "password": "x"}},
		{"malformed json", `{"username":`},
		{"not an object", `[1,2]`},
		{"no body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "username and password are required", decodeMap(t, rec)["message"])
		})
	}
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	env := newTestEnv(t)

	const n = 16
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(t, http.MethodPost, "/register", map[string]string{"username": "race", "password": "pw"}).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	assert.Equal(t, 1, created)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "p1")

	rec := env.do(t, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "p1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, authUser{ID: 1, Username: "alice"}, resp.User)

	claims, err := env.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "p1")

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "p1"},
	} {
		rec := env.do(t, http.MethodPost, "/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", decodeMap(t, rec)["message"])
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username and password are required", decodeMap(t, rec)["message"])
}

func TestAuthRoutes_NeverGated(t *testing.T) {
	env := newTestEnv(t, withRules(
		ruleAll("/register", "role:admin"),
		ruleAll("/login", "authenticated"),
	))

	rec := env.do(t, http.MethodPost, "/register", map[string]string{"username": "a", "password": "b"},
		"Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/login", map[string]string{"username": "a", "password": "b"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	env := newTestEnv(t, withRateLimit(0.001, 2), withTrustedProxies("203.0.113.0/24"))
	env.srv.authLimiter.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	body := map[string]string{"username": "nobody", "password": "x"}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/login", body).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/login", body).Code)

	rec := env.do(t, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "too many requests", decodeMap(t, rec)["message"])

	// another client behind the trusted proxy still has its own bucket
	rec = env.do(t, http.MethodPost, "/login", body, "X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	env := newTestEnv(t, withRateLimit(1, 1))
	env.srv.authLimiter.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	body := map[string]string{"username": "nobody", "password": "x"}
	codes := map[int]int{}
	for i := 0; i < 20; i++ {
		rec := env.do(t, http.MethodPost, "/login", body, "X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		codes[rec.Code]++
	}

	assert.Equal(t, map[int]int{http.StatusUnauthorized: 1, http.StatusTooManyRequests: 19}, codes)
	assert.Equal(t, 1, env.srv.authLimiter.size())
}
