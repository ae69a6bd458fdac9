package handlers

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-hatch-backend/internal/auth"
	"github.com/tbourn/go-hatch-backend/internal/http/middleware"
)

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Hatch - Login</title>
<style>
body{font-family:system-ui,sans-serif;display:flex;min-height:100vh;align-items:center;justify-content:center;margin:0;background:#fdf6ec}
form{background:#fff;padding:2rem;border-radius:12px;box-shadow:0 4px 16px rgba(0,0,0,.08);min-width:280px}
.error{color:#b00020;margin:0 0 1rem}
input,button{width:100%;box-sizing:border-box;padding:.6rem;margin-top:.5rem}
</style>
</head>
<body>
<form method="post" action="/login">
<h1>Hatch</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<label for="password">Password</label>
<input id="password" name="password" type="password" autofocus required>
<button type="submit">Enter</button>
</form>
</body>
</html>
`))

var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Hatch</title></head>
<body>
<h1>Hatch</h1>
<p>The API is running. Place the frontend at <code>{{.}}</code> to serve it here.</p>
<p><a href="/logout">Log out</a></p>
</body>
</html>
`))

type loginView struct {
	Error string
}

// AuthHandlers serves the login form, logout, and the gated index page.
type AuthHandlers struct {
	sessions     *auth.SessionManager
	staticRoot   string
	secureCookie bool
}

// NewAuthHandlers binds the page handlers. staticRoot is searched for
// index.html.
func NewAuthHandlers(sessions *auth.SessionManager, staticRoot string, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{sessions: sessions, staticRoot: staticRoot, secureCookie: secureCookie}
}

func render(c *gin.Context, status int, t *template.Template, data any) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(c.Writer, data); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("template", t.Name()).Msg("render")
	}
}

// LoginPage renders the password form.
func (h *AuthHandlers) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, loginTmpl, loginView{})
}

// Login checks the submitted password and, on success, sets the session
// cookie and redirects to the index page.
func (h *AuthHandlers) Login(c *gin.Context) {
	if !h.sessions.CheckPassword(c.PostForm("password")) {
		render(c, http.StatusUnauthorized, loginTmpl, loginView{Error: "Invalid password"})
		return
	}
	token, err := h.sessions.Issue()
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("issue session")
		render(c, http.StatusInternalServerError, loginTmpl, loginView{Error: "Could not start a session, try again"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie and returns to the login form.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// Index serves <staticRoot>/index.html, or a minimal landing page when the
// frontend is not deployed.
func (h *AuthHandlers) Index(c *gin.Context) {
	index := filepath.Join(h.staticRoot, "index.html")
	if st, err := os.Stat(index); err == nil && !st.IsDir() {
		c.File(index)
		return
	}
	render(c, http.StatusOK, landingTmpl, index)
}
