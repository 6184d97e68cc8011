package controller

import (
	"net/http"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/bassista/go_wind/internal/view"
	"github.com/gin-gonic/gin"
)

// ViewsResponse lists navigable views.
type ViewsResponse struct {
	Views   []string `json:"views"`
	Default string   `json:"default"`
}

// ConfigurationController serves the spots document and its rotation settings.
type ConfigurationController struct {
	store cache.RotationStore
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(store cache.RotationStore) *ConfigurationController {
	return &ConfigurationController{store: store}
}

// GetConfiguration returns the whole document.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	doc, err := cc.store.Snapshot()
	if err != nil {
		respondError(c, "config-controller", err, "failed to read configuration")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// UpdateRotation handles PUT /config/rotation.
func (cc *ConfigurationController) UpdateRotation(c *gin.Context) {
	logger.WithComponent("config-controller").Debugf("PUT /config/rotation handler called")

	var rotation repository.Rotation
	if err := c.ShouldBindJSON(&rotation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	doc, err := cc.store.SetRotation(c.Request.Context(), rotation)
	if err != nil {
		respondError(c, "config-controller", err, "failed to update rotation")
		return
	}
	c.JSON(http.StatusOK, doc.Rotation)
}

// GetViews returns the view names in rotation order.
func (cc *ConfigurationController) GetViews(c *gin.Context) {
	doc, err := cc.store.Snapshot()
	if err != nil {
		respondError(c, "config-controller", err, "failed to read views")
		return
	}
	c.JSON(http.StatusOK, ViewsResponse{Views: view.ViewNames(&doc), Default: view.DefaultView(&doc)})
}
