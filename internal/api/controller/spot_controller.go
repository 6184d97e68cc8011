package controller

import (
	"net/http"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/gin-gonic/gin"
)

// ReorderRequest is the body of PUT /api/spots/order.
type ReorderRequest struct {
	Names []string `json:"names"`
}

// RenameRequest is the body of PUT /api/spot/:name/rename.
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// SpotController handles spot-related HTTP endpoints using the generic CRUD controller.
type SpotController struct {
	crud  *CrudController[repository.Spot]
	store cache.SpotStore
}

// NewSpotController creates a new SpotController with the given cache store.
func NewSpotController(store cache.SpotStore) *SpotController {
	return &SpotController{
		crud: &CrudController[repository.Spot]{
			Service:   &SpotCrudService{Store: store},
			Validator: &SpotCrudValidator{validator: repository.NewValidator()},
			Component: "spot-controller",
		},
		store: store,
	}
}

// AllSpots handles GET /spots.
func (sc *SpotController) AllSpots(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("GET /spots handler called")
	sc.crud.GetAll(c)
}

// GetSpot handles GET /spot/:name.
func (sc *SpotController) GetSpot(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("GET /spot/%s handler called", c.Param("name"))
	sc.crud.GetOne(c)
}

// CreateSpot handles POST /spot. 409 when the name is taken.
func (sc *SpotController) CreateSpot(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("POST /spot handler called")
	sc.crud.Create(c)
}

// UpdateSpot handles PUT /spot/:name. A body name different from the path
// renames the spot.
func (sc *SpotController) UpdateSpot(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("PUT /spot/%s handler called", c.Param("name"))
	sc.crud.Update(c)
}

// DeleteSpot handles DELETE /spot/:name.
func (sc *SpotController) DeleteSpot(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("DELETE /spot/%s handler called", c.Param("name"))
	sc.crud.Delete(c)
}

// ReorderSpots handles PUT /spots/order.
func (sc *SpotController) ReorderSpots(c *gin.Context) {
	logger.WithComponent("spot-controller").Debugf("PUT /spots/order handler called")

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Names == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: expected {\"names\": [...]}"})
		return
	}

	doc, err := sc.store.ReorderSpots(c.Request.Context(), req.Names)
	if err != nil {
		respondError(c, "spot-controller", err, "failed to reorder spots")
		return
	}
	c.JSON(http.StatusOK, doc.Spots)
}

// RenameSpot handles PUT /spot/:name/rename. Only the name changes; views
// referencing the spot follow it.
func (sc *SpotController) RenameSpot(c *gin.Context) {
	name := c.Param("name")
	logger.WithComponent("spot-controller").Debugf("PUT /spot/%s/rename handler called", name)

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: expected {\"name\": \"...\"}"})
		return
	}

	doc, err := sc.store.RenameSpot(c.Request.Context(), name, req.Name)
	if err != nil {
		respondError(c, "spot-controller", err, "failed to rename spot")
		return
	}
	c.JSON(http.StatusOK, doc.Spots)
}
