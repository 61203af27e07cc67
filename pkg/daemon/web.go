package daemon

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web
var webFS embed.FS

// registerWidget serves the calculator page and its assets.
func (s *Server) registerWidget(router *gin.Engine) {
	assets, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}

	index, err := fs.ReadFile(assets, "index.html")
	if err != nil {
		panic(err)
	}

	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	router.StaticFS("/static", http.FS(assets))
}
