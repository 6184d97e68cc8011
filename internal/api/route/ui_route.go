package route

import (
	"net/http"

	"github.com/bassista/go_wind/internal/api/controller"
	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/web"
	"github.com/gin-gonic/gin"
)

// NewUIRouter sets up the server-rendered pages, the embedded static assets
// and the HTML 404 for every other path.
func NewUIRouter(r *gin.Engine, store cache.ReadOnlyStore, images imagecache.Source, filePath, defaultView string) {
	pc := controller.NewPageController(store, images, filePath, defaultView)

	r.StaticFS("/static", web.Static())
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.GET("/", pc.Root)
	r.GET("/view/:name", pc.View)
	r.GET("/spot/:name", pc.Spot)
	r.GET("/config", pc.Config)
	r.GET("/config/spot/:name", pc.EditSpot)

	r.NoRoute(pc.NotFound)
}
