package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-hatch-backend/internal/auth"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// RequireSession gates the wrapped routes behind a valid session cookie.
//
// Requests without a cookie, or with an expired or tampered token, are
// redirected (302) to LoginPath and the chain is aborted. This applies to
// API calls as well as pages: the frontend is same-origin and follows the
// redirect to the login form.
func RequireSession(sessions *auth.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(auth.CookieName)
		if err := sessions.Validate(token); err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().
				Err(err).
				Str("path", c.Request.URL.Path).
				Msg("session rejected")
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
