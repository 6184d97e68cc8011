package route

import (
	"time"

	"github.com/bassista/go_wind/internal/api/controller"
	"github.com/bassista/go_wind/internal/api/middleware"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/gin-gonic/gin"
)

// NewImageRouter serves the cached weather charts.
func NewImageRouter(timeout time.Duration, group *gin.RouterGroup, images imagecache.Source, cacheControl string) {
	ic := controller.NewImageController(images, cacheControl)
	group.Use(middleware.RequestTimeout(timeout))

	group.GET(":key", ic.GetImage)
}
