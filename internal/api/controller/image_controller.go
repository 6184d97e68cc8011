package controller

import (
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/gin-gonic/gin"
)

// ImageController serves cached weather charts.
type ImageController struct {
	images       imagecache.Source
	cacheControl string
}

// NewImageController creates an ImageController. cacheControl is sent with every image.
func NewImageController(images imagecache.Source, cacheControl string) *ImageController {
	return &ImageController{images: images, cacheControl: cacheControl}
}

// GetImage handles GET /images/:key.
func (ic *ImageController) GetImage(c *gin.Context) {
	key := c.Param("key")
	logger.WithComponent("image-controller").Tracef("GET /images/%s handler called", key)

	path, err := ic.images.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, "image-controller", err, "failed to load image")
		return
	}

	if ic.cacheControl != "" {
		c.Header("Cache-Control", ic.cacheControl)
	}
	c.Header("Content-Type", "image/png")
	c.File(path)
}
