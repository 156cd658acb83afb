package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/mf-tracker/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	utils.InitJWT("middleware-test-secret")
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.Use(LoggerMiddleware())
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(CtxEmail)})
	})
	r.GET("/admin", AuthMiddleware(), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/ws", WebSocketAuthMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := protectedRouter()
	token, err := utils.GenerateToken(4, "ana@example.com", false)
	require.NoError(t, err)

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"authorization header missing"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "garbage").Code)

	w = do(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"ana@example.com"}`, w.Body.String())
}

func TestAdminOnly(t *testing.T) {
	r := protectedRouter()
	user, _ := utils.GenerateToken(4, "ana@example.com", false)
	admin, _ := utils.GenerateToken(1, "root@example.com", true)

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", user).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", admin).Code)
}

func TestWebSocketAuthUsesQueryToken(t *testing.T) {
	r := protectedRouter()
	token, _ := utils.GenerateToken(4, "ana@example.com", false)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/ws", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/ws?token="+token, "").Code)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	r := protectedRouter()
	token, _ := utils.GenerateToken(9, "gone@example.com", false)
	utils.BlacklistToken(token)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", token).Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(0.0001, 2)
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("http://localhost:5173"), SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api/notifications", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "same-site", w.Header().Get("Cross-Origin-Resource-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
