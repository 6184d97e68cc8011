package route

import (
	"time"

	"github.com/bassista/go_wind/internal/api/controller"
	"github.com/bassista/go_wind/internal/api/middleware"
	"github.com/bassista/go_wind/internal/cache"
	"github.com/gin-gonic/gin"
)

// NewSpotRouter sets up the spot CRUD and reorder routes.
func NewSpotRouter(timeout time.Duration, group *gin.RouterGroup, store cache.SpotStore) {
	sc := controller.NewSpotController(store)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("spots", timeoutMiddleware, sc.AllSpots)
	group.PUT("spots/order", timeoutMiddleware, sc.ReorderSpots)
	group.GET("spot/:name", timeoutMiddleware, sc.GetSpot)
	group.POST("spot", timeoutMiddleware, sc.CreateSpot)
	group.PUT("spot/:name", timeoutMiddleware, sc.UpdateSpot)
	group.DELETE("spot/:name", timeoutMiddleware, sc.DeleteSpot)
	group.PUT("spot/:name/rename", timeoutMiddleware, sc.RenameSpot)
}
