package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/view"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, cache.ErrSpotNotFound),
		errors.Is(err, view.ErrViewNotFound),
		errors.Is(err, imagecache.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, cache.ErrInvalid),
		errors.Is(err, cache.ErrOrderMismatch):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrSpotExists):
		return http.StatusConflict
	case errors.Is(err, imagecache.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, cache.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...} with the mapped status. Internal errors
// are logged in full and answered with fallback only.
func respondError(c *gin.Context, component string, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithComponent(component).Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	logger.WithComponent(component).Debugf("%s %s: %d %v", c.Request.Method, c.Request.URL.Path, status, err)
	c.JSON(status, gin.H{"error": err.Error()})
}
