package route

import (
	"time"

	"github.com/bassista/go_wind/internal/api/controller"
	"github.com/bassista/go_wind/internal/api/middleware"
	"github.com/bassista/go_wind/internal/cache"
	"github.com/gin-gonic/gin"
)

// NewConfigurationRouter sets up the document, rotation and view listing routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, store cache.RotationStore) {
	cc := controller.NewConfigurationController(store)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("config", timeoutMiddleware, cc.GetConfiguration)
	group.PUT("config/rotation", timeoutMiddleware, cc.UpdateRotation)
	group.GET("views", timeoutMiddleware, cc.GetViews)
}
