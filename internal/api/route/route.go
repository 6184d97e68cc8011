package route

import (
	"net/http"

	"github.com/bassista/go_wind/internal/api/middleware"
	"github.com/bassista/go_wind/internal/app"
	"github.com/bassista/go_wind/internal/web"
	"github.com/gin-gonic/gin"
)

// SetupRoutes builds the engine serving the dashboard pages, the JSON API and
// the cached charts.
func SetupRoutes(appCtx *app.App) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.HoneybadgerMiddleware(appCtx.Config.Misc.HoneybadgerKey, appCtx.Config.Misc.Environment))
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	api := r.Group("/api")
	api.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	timeout := appCtx.Config.Server.RequestTimeout
	NewSpotRouter(timeout, api, appCtx.Store)
	NewConfigurationRouter(timeout, api, appCtx.Store)

	// a chart refresh may wait for the upstream, so it gets the fetch timeout on top
	NewImageRouter(timeout+appCtx.Config.Images.FetchTimeout, r.Group("/images"), appCtx.Images, appCtx.Config.Images.CacheControl)

	NewUIRouter(r, appCtx.Store, appCtx.Images, appCtx.Config.Data.FilePath, appCtx.Config.Misc.DefaultViewName)
	return r, nil
}
