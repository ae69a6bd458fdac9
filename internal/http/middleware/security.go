package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultHSTSMaxAge = 180 * 24 * time.Hour
	// Generated images and audio get unique names and are never rewritten.
	immutableCacheControl = "private, max-age=31536000, immutable"
)

// SecurityOptions configures SecurityHeaders.
//
// Path lists accept exact paths ("/login") and prefixes, which end in a slash
// ("/api/", "/static/images/").
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ContentSecurityPolicy is sent verbatim when non-empty.
	ContentSecurityPolicy string
	// NoStorePaths get Cache-Control: no-store (pages and API responses that
	// change with every egg).
	NoStorePaths []string
	// ImmutablePaths get a long private cache lifetime.
	ImmutablePaths []string
}

// SecurityHeaders attaches hardening headers to every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: same-origin
//
// plus the optional policy, CSP, HSTS and cache headers selected by opt. When
// RequestID ran first, X-Request-ID is added to Access-Control-Expose-Headers
// so the page script can report it.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		path := c.Request.URL.Path

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		// Same-origin referrers keep the login redirect readable in access logs.
		h.Set("Referrer-Policy", "same-origin")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
		}

		switch {
		case matchPath(path, opt.ImmutablePaths):
			h.Set("Cache-Control", immutableCacheControl)
		case matchPath(path, opt.NoStorePaths):
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			const expose = "Access-Control-Expose-Headers"
			switch cur := h.Get(expose); {
			case cur == "":
				h.Set(expose, requestIDHeader)
			case !strings.Contains(cur, requestIDHeader):
				h.Set(expose, cur+", "+requestIDHeader)
			}
		}

		c.Next()
	}
}

// matchPath reports whether path equals one of the exact entries or starts
// with one of the slash-terminated prefixes.
func matchPath(path string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") && len(p) > 1 {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// isHTTPS reports whether the request arrived over TLS, directly or through a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
