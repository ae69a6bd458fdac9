package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-hatch-backend/internal/repo"
)

// AssetLocator resolves a stored asset name to a file on disk.
type AssetLocator interface {
	Lookup(kind repo.AssetKind, filename string) (string, error)
}

// AssetHandlers serves generated images and audio, plus any other frontend
// files under the static root.
type AssetHandlers struct {
	assets AssetLocator
	files  http.FileSystem
}

// NewAssetHandlers binds the asset endpoints to assets. staticRoot backs
// paths outside images/ and audio/ (scripts, styles).
func NewAssetHandlers(assets AssetLocator, staticRoot string) *AssetHandlers {
	return &AssetHandlers{assets: assets, files: gin.Dir(staticRoot, false)}
}

// ServeStatic godoc
// @ID          serveStatic
// @Summary     Serve a generated asset or frontend file
// @Description images/{file} and audio/{file} resolve generated assets (audio is sent as audio/mpeg); other paths are served from the static root.
// @Tags        Assets
// @Produce     png,mpeg
// @Param       filepath  path  string  true  "Path below /static"
// @Success     200
// @Failure     404  {object}  handlers.ErrorResponse  "File not found"
// @Router      /static/{filepath} [get]
func (h *AssetHandlers) ServeStatic(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	dir, name, nested := strings.Cut(rel, "/")
	switch {
	case nested && dir == string(repo.AssetImages):
		h.serveAsset(c, repo.AssetImages, name, "Image file not found")
	case nested && dir == string(repo.AssetAudio):
		h.serveAsset(c, repo.AssetAudio, name, "Audio file not found")
	default:
		f, err := h.files.Open("/" + rel)
		if err != nil {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "File not found", err)
			return
		}
		st, err := f.Stat()
		f.Close()
		if err != nil || st.IsDir() {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "File not found", err)
			return
		}
		c.FileFromFS(rel, h.files)
	}
}

func (h *AssetHandlers) serveAsset(c *gin.Context, kind repo.AssetKind, name, notFound string) {
	p, err := h.assets.Lookup(kind, name)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, notFound, err)
		return
	}
	if kind == repo.AssetAudio {
		c.Header("Content-Type", "audio/mpeg")
	}
	c.File(p)
}
