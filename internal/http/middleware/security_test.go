package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securedRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, req *http.Request) http.Header {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securedRouter(SecurityOptions{})
	h := get(r, httptest.NewRequest(http.MethodGet, "/api/eggs", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "same-origin",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Errorf("%s = %q; want %q", k, got, v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Content-Security-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if got := h.Get(k); got != "" {
			t.Errorf("%s unexpectedly set to %q", k, got)
		}
	}
}

func TestSecurityHeaders_PolicyAndCSP(t *testing.T) {
	const csp = "default-src 'self'; img-src 'self' data:"
	r := securedRouter(SecurityOptions{EnablePolicy: true, ContentSecurityPolicy: csp})
	h := get(r, httptest.NewRequest(http.MethodGet, "/login", nil))

	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %v", h)
	}
	if got := h.Get("Content-Security-Policy"); got != csp {
		t.Fatalf("CSP = %q", got)
	}
}

func TestSecurityHeaders_CacheRules(t *testing.T) {
	r := securedRouter(SecurityOptions{
		NoStorePaths:   []string{"/", "/login", "/api/"},
		ImmutablePaths: []string{"/static/images/", "/static/audio/"},
	})

	cases := map[string]string{
		"/":                                  "no-store",
		"/login":                             "no-store",
		"/api/eggs":                          "no-store",
		"/static/images/egg_1.png":           immutableCacheControl,
		"/static/audio/creature_sound_2.mp3": immutableCacheControl,
		"/static/app.js":                     "",
		"/logout":                            "",
	}
	for path, want := range cases {
		if got := get(r, httptest.NewRequest(http.MethodGet, path, nil)).Get("Cache-Control"); got != want {
			t.Errorf("%s Cache-Control = %q; want %q", path, got, want)
		}
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	r := securedRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})
	const want = "max-age=86400; includeSubDomains"

	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := get(r, plain).Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS over http: %q", got)
	}

	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.TLS = &tls.ConnectionState{}
	if got := get(r, direct).Get("Strict-Transport-Security"); got != want {
		t.Fatalf("HSTS over tls = %q; want %q", got, want)
	}

	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	if got := get(r, proxied).Get("Strict-Transport-Security"); got != want {
		t.Fatalf("HSTS behind proxy = %q; want %q", got, want)
	}
}

func TestSecurityHeaders_DefaultHSTSMaxAge(t *testing.T) {
	r := securedRouter(SecurityOptions{EnableHSTS: true})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	if got := get(r, req).Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains" {
		t.Fatalf("default HSTS = %q", got)
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	withExpose := func(existing string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if existing != "" {
				c.Header("Access-Control-Expose-Headers", existing)
			}
			c.Next()
		}
	}
	cases := []struct{ existing, want string }{
		{"", "X-Request-ID"},
		{"Content-Length", "Content-Length, X-Request-ID"},
		{"X-Request-ID, Content-Length", "X-Request-ID, Content-Length"},
	}
	for _, tc := range cases {
		r := securedRouter(SecurityOptions{}, RequestID(), withExpose(tc.existing))
		if got := get(r, httptest.NewRequest(http.MethodGet, "/", nil)).Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Errorf("existing %q: got %q; want %q", tc.existing, got, tc.want)
		}
	}
}

func TestMatchPath(t *testing.T) {
	pats := []string{"/", "/login", "/api/", ""}
	for path, want := range map[string]bool{
		"/":          true,
		"/login":     true,
		"/login/x":   false,
		"/api/eggs":  true,
		"/api":       false,
		"/static/a":  false,
		"/loginpage": false,
	} {
		if got := matchPath(path, pats); got != want {
			t.Errorf("matchPath(%q) = %v; want %v", path, got, want)
		}
	}
}
