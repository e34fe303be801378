package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"compass/config"
	"compass/pkg/jwt"
	"compass/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		Issuer:          "compass-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
}

// ── 测试桩 ──

type fakeChecker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeChecker) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

type fakeLimiter struct {
	calls   int
	allowed bool
	err     error
	lastKey string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.calls++
	f.lastKey = key
	return f.allowed, f.err
}

// ═══════════════════════════════════════════════════════════
// JWTAuth
// ═══════════════════════════════════════════════════════════

func runJWT(mgr *jwt.Manager, checker TokenChecker, header string) (*httptest.ResponseRecorder, map[string]any) {
	var keys map[string]any
	r := gin.New()
	r.GET("/p", JWTAuth(mgr, checker, zap.NewNop()), func(c *gin.Context) {
		keys = c.Keys
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/p", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, keys
}

func TestJWTAuth_InjectsClaims(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken(42, "teacher")

	w, keys := runJWT(mgr, nil, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if keys["user_id"] != int64(42) || keys["role"] != "teacher" {
		t.Errorf("上下文注入错误: %v", keys)
	}
	if jti, _ := keys["token_jti"].(string); jti == "" {
		t.Error("期望注入 token_jti")
	}
	if _, ok := keys["token_exp"].(time.Time); !ok {
		t.Error("期望注入 token_exp")
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	refresh, _ := mgr.GenerateRefreshToken(42, "teacher")

	cases := map[string]string{
		"缺少认证头":   "",
		"格式错误":    "Token abc",
		"签名无效":    "Bearer not-a-jwt",
		"刷新令牌不可用": "Bearer " + refresh,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w, _ := runJWT(mgr, nil, header)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("期望 401，实际=%d", w.Code)
			}
		})
	}
}

func TestJWTAuth_Blacklist(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken(7, "student")
	claims, _ := mgr.ParseToken(token)

	w, _ := runJWT(mgr, &fakeChecker{revoked: map[string]bool{claims.ID: true}}, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("已拉黑 Token 期望 401，实际=%d", w.Code)
	}

	// Redis 故障时降级放行
	w, _ = runJWT(mgr, &fakeChecker{err: errors.New("redis down")}, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Errorf("黑名单故障期望放行，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RoleAuth
// ═══════════════════════════════════════════════════════════

func TestRoleAuth(t *testing.T) {
	cases := []struct {
		name string
		role string
		want int
	}{
		{"允许的角色", "teacher", http.StatusOK},
		{"管理员", "admin", http.StatusOK},
		{"不允许的角色", "student", http.StatusForbidden},
		{"未认证", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", func(c *gin.Context) {
				if tc.role != "" {
					c.Set("role", tc.role)
				}
			}, RoleAuth("admin", "teacher"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/p", nil))
			if w.Code != tc.want {
				t.Errorf("期望 %d，实际=%d", tc.want, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func runRateLimit(limiter RateLimiter, limit int) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/auth/login", RateLimit(limiter, limit, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", nil))
	return w
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	if w := runRateLimit(limiter, 5); w.Code != http.StatusOK {
		t.Errorf("期望放行，实际=%d", w.Code)
	}
	if limiter.lastKey != "rate_limit:192.0.2.1:/auth/login" {
		t.Errorf("限流键错误: %s", limiter.lastKey)
	}

	limiter.allowed = false
	if w := runRateLimit(limiter, 5); w.Code != http.StatusTooManyRequests {
		t.Errorf("期望 429，实际=%d", w.Code)
	}

	limiter.err = errors.New("redis down")
	if w := runRateLimit(limiter, 5); w.Code != http.StatusOK {
		t.Errorf("限流器故障期望放行，实际=%d", w.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	limiter := &fakeLimiter{}
	if w := runRateLimit(limiter, 0); w.Code != http.StatusOK {
		t.Errorf("limit=0 期望放行，实际=%d", w.Code)
	}
	if limiter.calls != 0 {
		t.Errorf("limit=0 不应调用限流器，实际调用 %d 次", limiter.calls)
	}
	if w := runRateLimit(nil, 5); w.Code != http.StatusOK {
		t.Errorf("无限流器期望放行，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// BodyLimit
// ═══════════════════════════════════════════════════════════

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8, map[string]int64{"/import": 64}))
	read := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	}
	r.POST("/small", read)
	r.POST("/import", read)

	body := strings.Repeat("x", 32)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/small", strings.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超出默认上限期望 413，实际=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/import", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Errorf("路由单独放宽后期望 200，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 响应头类中间件
// ═══════════════════════════════════════════════════════════

func TestHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(), CORS([]string{"http://localhost:5173/"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/p", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-1" {
		t.Errorf("期望透传 X-Request-ID，实际=%q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("期望允许来源，实际=%q", got)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Error("期望暴露 Content-Disposition")
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("期望 Cache-Control: no-store")
	}

	// 未知来源与超长 Request-ID
	req = httptest.NewRequest("OPTIONS", "/p", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未知来源不应返回 CORS 头")
	}
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("超长 Request-ID 应被替换为 UUID，实际=%q", got)
	}
	if validRequestID("abc\ndef") {
		t.Error("含换行的 Request-ID 不应被接受")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Metrics
// ═══════════════════════════════════════════════════════════

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegisterer(reg)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/students/1", "/students/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", target, nil))
	}

	// 路径参数折叠为路由模板
	if n := testutil.CollectAndCount(m.RequestDuration); n != 2 {
		t.Errorf("期望 2 组标签（模板路由 + unmatched），实际=%d", n)
	}

	// nil 指标不应 panic
	r = gin.New()
	r.Use(Metrics(nil))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/p", nil))
}
