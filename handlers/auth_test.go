package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	env := newEnv(t)
	body := env.login("/api/auth/login", clientEmail)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(900), body["expiresIn"])
	assert.NotEmpty(t, body["refreshToken"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "usr_1", user["id"])
	assert.Equal(t, clientEmail, user["email"])
	assert.Equal(t, "user", user["role"])

	id, err := env.tokens.Verify(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "usr_1", id.ID)
}

func TestLogin_GenericFailure(t *testing.T) {
	env := newEnv(t)
	for _, creds := range []map[string]string{
		{"email": clientEmail, "password": "wrong"},
		{"email": "nobody@example.com", "password": password},
	} {
		w := env.do(http.MethodPost, "/api/auth/login", creds, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Invalid credentials", body["error"])
	}
}

func TestLogin_BadBodies(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/auth/login", "{", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w)["error"])

	w = env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": clientEmail}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", decode(t, w)["error"])
}

func TestLogin_AuthPresetLimitsAttempts(t *testing.T) {
	env := newEnv(t)
	for i := 0; i < 5; i++ {
		w := env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": clientEmail, "password": "nope"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.do(http.MethodPost, "/api/auth/login", map[string]string{"email": clientEmail, "password": password}, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestAdminLogin_Success(t *testing.T) {
	env := newEnv(t)
	body := env.login("/api/auth/admin-login", adminEmail)
	assert.Equal(t, float64(3600), body["expiresIn"])

	id, err := env.tokens.Verify(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)
}

func TestAdminLogin_NonAdminRejected(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/auth/admin-login", map[string]string{"email": clientEmail, "password": password}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])
}

func TestAdminLogin_FourthAttemptRejectedEvenWithValidCredentials(t *testing.T) {
	env := newEnv(t)
	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/auth/admin-login", map[string]string{"email": adminEmail, "password": "guess"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	w := env.do(http.MethodPost, "/api/auth/admin-login", map[string]string{"email": adminEmail, "password": password}, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "300", w.Header().Get("Retry-After"))
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many admin login attempts, please try again in a few minutes.", body["error"])

	// the window expires
	env.now = env.now.Add(5 * time.Minute)
	env.login("/api/auth/admin-login", adminEmail)
}

func TestAdminLogin_RotatingForwardedHeadersStillLimited(t *testing.T) {
	env := newEnv(t)
	attempt := func(ip string) int {
		w := env.doWith(http.MethodPost, "/api/auth/admin-login",
			map[string]string{"email": adminEmail, "password": "guess"},
			map[string]string{"CF-Connecting-IP": ip, "X-Forwarded-For": ip})
		return w.Code
	}
	codes := []int{attempt("203.0.113.1"), attempt("203.0.113.2"), attempt("203.0.113.3"), attempt("203.0.113.4")}
	assert.Equal(t, []int{401, 401, 401, 429}, codes)
}

func TestAdminLogin_CloudflareHeaderTrustedWhenConfigured(t *testing.T) {
	env := newEnv(t, func(d *Deps) { d.TrustedPlatform = gin.PlatformCloudflare })
	for i := 0; i < 3; i++ {
		w := env.doWith(http.MethodPost, "/api/auth/admin-login",
			map[string]string{"email": adminEmail, "password": "guess"},
			map[string]string{"CF-Connecting-IP": "198.51.100.20"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := env.doWith(http.MethodPost, "/api/auth/admin-login",
		map[string]string{"email": adminEmail, "password": "guess"},
		map[string]string{"CF-Connecting-IP": "198.51.100.20"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// a different visitor behind the same edge has its own budget
	w = env.doWith(http.MethodPost, "/api/auth/admin-login",
		map[string]string{"email": adminEmail, "password": "guess"},
		map[string]string{"CF-Connecting-IP": "198.51.100.21"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_AdminAccountGetsUserSession(t *testing.T) {
	env := newEnv(t)
	body := env.login("/api/auth/login", adminEmail)
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])
	access := body["accessToken"].(string)

	w := env.do(http.MethodGet, "/api/consultations", nil, access)
	require.Equal(t, http.StatusForbidden, w.Code)

	// refreshing does not promote the session
	w = env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": body["refreshToken"].(string)}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode(t, w)["accessToken"].(string)
	id, err := env.tokens.Verify(refreshed)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, id.Role)
	w = env.do(http.MethodGet, "/api/consultations", nil, refreshed)
	require.Equal(t, http.StatusForbidden, w.Code)

	// an admin-login session refreshes to an admin token
	pair := env.login("/api/auth/admin-login", adminEmail)
	w = env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": pair["refreshToken"].(string)}, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/consultations", nil, decode(t, w)["accessToken"].(string))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh(t *testing.T) {
	env := newEnv(t)
	pair := env.login("/api/auth/login", clientEmail)

	env.now = env.now.Add(20 * time.Minute)
	_, err := env.tokens.Verify(pair["accessToken"].(string))
	require.Error(t, err, "original access token has expired")

	w := env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": pair["refreshToken"].(string)}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(900), body["expiresIn"])
	id, err := env.tokens.Verify(body["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, "usr_1", id.ID)
}

func TestRefresh_Rejections(t *testing.T) {
	env := newEnv(t)
	pair := env.login("/api/auth/login", clientEmail)

	gone, err := env.tokens.Issue(models.Identity{ID: "usr_deleted", Email: "gone@example.com"})
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"access token":    pair["accessToken"].(string),
		"garbage":         "not.a.jwt",
		"unknown subject": gone.RefreshToken,
	} {
		w := env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": tok}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Equal(t, "Invalid credentials", decode(t, w)["error"], name)
	}

	w := env.do(http.MethodPost, "/api/auth/refresh", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	env := newEnv(t)
	token := env.login("/api/auth/login", clientEmail)["accessToken"].(string)

	w := env.do(http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, clientEmail, user["email"])

	w = env.do(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	env := newEnv(t)
	pair := env.login("/api/auth/login", clientEmail)
	access := pair["accessToken"].(string)
	refresh := pair["refreshToken"].(string)

	w := env.do(http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": refresh}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Logged out", decode(t, w)["message"])

	w = env.do(http.MethodGet, "/api/auth/me", nil, access)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// a fresh login still works
	fresh := env.login("/api/auth/login", clientEmail)["accessToken"].(string)
	w = env.do(http.MethodGet, "/api/auth/me", nil, fresh)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogout_RequiresAuth(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	access := env.login("/api/auth/login", clientEmail)["accessToken"].(string)
	w = env.do(http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": "garbage"}, access)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogout_NotMountedWithoutRevocations(t *testing.T) {
	env := newEnv(t, func(d *Deps) {
		ts, err := tokens.NewService(tokens.Config{Secret: testJWTSecret})
		require.NoError(t, err)
		d.Tokens = ts
	})
	w := env.do(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
