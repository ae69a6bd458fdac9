package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	return &buf
}

func TestRedactingLogger_ScrubsHeadersAndQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/static/*filepath", func(c *gin.Context) { c.String(http.StatusOK, "png") })

	q := "owner=a.b+tag@example.com&egg=123e4567-e89b-12d3-a456-426614174000&tel=+1-555-123-4567"
	req := httptest.NewRequest(http.MethodGet, "/static/images/egg_1.png?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "hatch_session=eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJoYXRjaCJ9.c2ln; theme=dark")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Debug", "jwt eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln key sk-abcdefghijklmnopqrstuv")
	req.Header.Set("X-Request-ID", "rid-static")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/static/*filepath"`,
		`"request_id":"rid-static"`,
		`[REDACTED:email]`,
		`[REDACTED:id]`,
		`[REDACTED:phone]`,
		`"Authorization":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"Cookie":"hatch_session=[REDACTED]; theme=[REDACTED]"`,
		`"X-Debug":"jwt [REDACTED:token] key [REDACTED:key]"`,
		`"message":"http_request"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("missing %s in:\n%s", want, logs)
		}
	}
	if strings.Contains(logs, "shhh") || strings.Contains(logs, "dark") || strings.Contains(logs, "eyJ") {
		t.Fatalf("secret leaked into logs:\n%s", logs)
	}
}

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{QuietPaths: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/eggs", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.POST("/api/hatch-creature", func(c *gin.Context) {
		_ = c.Error(errLogged{})
		c.Status(http.StatusBadRequest)
	})

	cases := []struct {
		method, path, rid, level string
	}{
		{http.MethodGet, "/health", "rid-health", "debug"},
		{http.MethodGet, "/missing", "rid-miss", "warn"},
		{http.MethodGet, "/api/eggs", "rid-500", "error"},
		{http.MethodPost, "/api/hatch-creature", "rid-gin-err", "error"},
	}
	for _, tc := range cases {
		buf.Reset()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("X-Request-ID", tc.rid)
		r.ServeHTTP(httptest.NewRecorder(), req)

		logs := buf.String()
		if !strings.Contains(logs, `"level":"`+tc.level+`"`) {
			t.Errorf("%s %s: want level %s, got %s", tc.method, tc.path, tc.level, logs)
		}
		if !strings.Contains(logs, `"request_id":"`+tc.rid+`"`) {
			t.Errorf("%s %s: request_id not taken from request header: %s", tc.method, tc.path, logs)
		}
	}
}

func TestRedactingLogger_AttachesScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/api/creatures", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		LoggerFrom(c).Info().Msg("from handler")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/creatures", nil)
	req.Header.Set("X-Request-ID", "rid-scoped")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, `"request_id":"rid-scoped"`) {
			t.Fatalf("line without request_id: %s", line)
		}
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("expected 3 log lines, got %d:\n%s", n, buf.String())
	}
}

func TestMaskCookies(t *testing.T) {
	cases := map[string]string{
		"hatch_session=abc":        "hatch_session=[REDACTED]",
		"a=1;b=2":                  "a=[REDACTED]; b=[REDACTED]",
		" hatch_session=x ; bare ": "hatch_session=[REDACTED]; bare=[REDACTED]",
	}
	for in, want := range cases {
		if got := maskCookies(in); got != want {
			t.Errorf("maskCookies(%q) = %q; want %q", in, got, want)
		}
	}
}

type errLogged struct{}

func (errLogged) Error() string { return "boom" }
