package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the number of bytes of the raw query string logged.
const maxQueryLogLength = 1024

var (
	uuidRE = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)

	// JWTs: session tokens and provider bearer tokens copied into headers.
	jwtRE    = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`)
	apiKeyRE = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`)
	emailRE  = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

	// Digits only, so hex runs inside ids never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redact scrubs credentials and identifiers from s. Order matters: tokens and
// ids go first because the phone pattern is the loosest.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = jwtRE.ReplaceAllString(s, "[REDACTED:token]")
	s = apiKeyRE.ReplaceAllString(s, "[REDACTED:key]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// maskCookies keeps cookie names and drops every value, so logs still show
// whether a hatch_session cookie was presented.
func maskCookies(header string) string {
	parts := strings.Split(header, ";")
	for i, p := range parts {
		name, _, _ := strings.Cut(strings.TrimSpace(p), "=")
		parts[i] = name + "=[REDACTED]"
	}
	return strings.Join(parts, "; ")
}

// RedactOptions configures RedactingLogger.
//
// MaskHeaders names extra headers whose values are replaced with "[REDACTED]"
// (case-insensitive, merged with Authorization and Set-Cookie). Cookie headers
// always keep their names and lose their values.
//
// QuietPaths lists routes whose successful requests log at debug level, which
// keeps health probes and Prometheus scrapes out of info logs.
type RedactOptions struct {
	MaskHeaders []string
	QuietPaths  []string
}

// RedactingLogger is the access logger. It attaches a request-scoped logger
// carrying request_id to the Gin context and to the request context, then
// logs one "http_request" line per request with scrubbed query and headers.
// Bodies are never logged: egg descriptions, uploaded images and form
// passwords stay out of logs.
//
// Level: error for 5xx or when handlers recorded c.Errors, warn for 4xx,
// info otherwise (debug for QuietPaths).
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	quiet := make(map[string]struct{}, len(opts.QuietPaths))
	for _, p := range opts.QuietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		rid := c.Writer.Header().Get(requestIDHeader)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}
		l := log.With().Str("request_id", rid).Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			val := strings.Join(vv, ", ")
			switch lk := strings.ToLower(k); {
			case lk == "cookie":
				headers[k] = maskCookies(val)
			case isMasked(masked, lk):
				headers[k] = "[REDACTED]"
			default:
				headers[k] = redact(val)
			}
		}

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		case isMasked(quiet, route):
			ev = l.Debug()
		default:
			ev = l.Info()
		}

		ev.
			Str("method", c.Request.Method).
			Str("path", route).
			Str("query", redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

func isMasked(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}
