package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CrudService defines the minimal interface required for CRUD operations on
// resources identified by name.
type CrudService[T any] interface {
	All() ([]T, error)
	Get(name string) (T, error)
	Create(ctx context.Context, item T) ([]T, error)
	Update(ctx context.Context, name string, item T) ([]T, error)
	Remove(ctx context.Context, name string) ([]T, error)
}

// CrudValidator defines the interface for validating a resource.
type CrudValidator[T any] interface {
	Validate(item T) error
}

// CrudController provides generic CRUD handlers for resources.
type CrudController[T any] struct {
	Service   CrudService[T]
	Validator CrudValidator[T]
	Component string
}

// RegisterCrudRoutes registers CRUD endpoints for a resource on the given router group.
func (cc *CrudController[T]) RegisterCrudRoutes(rg *gin.RouterGroup, resource string) {
	rg.GET("/"+resource+"s", cc.GetAll)
	rg.GET("/"+resource+"/:name", cc.GetOne)
	rg.POST("/"+resource, cc.Create)
	rg.PUT("/"+resource+"/:name", cc.Update)
	rg.DELETE("/"+resource+"/:name", cc.Delete)
}

// GetAll handles GET requests to list all resources.
func (cc *CrudController[T]) GetAll(c *gin.Context) {
	items, err := cc.Service.All()
	if err != nil {
		respondError(c, cc.component(), err, "failed to read resource list")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetOne handles GET requests for a single resource by name.
func (cc *CrudController[T]) GetOne(c *gin.Context) {
	name, ok := cc.nameParam(c)
	if !ok {
		return
	}
	item, err := cc.Service.Get(name)
	if err != nil {
		respondError(c, cc.component(), err, "failed to read resource")
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create handles POST requests adding a new resource.
func (cc *CrudController[T]) Create(c *gin.Context) {
	item, ok := cc.bind(c)
	if !ok {
		return
	}
	items, err := cc.Service.Create(c.Request.Context(), item)
	if err != nil {
		respondError(c, cc.component(), err, "failed to create resource")
		return
	}
	c.JSON(http.StatusCreated, items)
}

// Update handles PUT requests replacing the named resource.
func (cc *CrudController[T]) Update(c *gin.Context) {
	name, ok := cc.nameParam(c)
	if !ok {
		return
	}
	item, ok := cc.bind(c)
	if !ok {
		return
	}
	items, err := cc.Service.Update(c.Request.Context(), name, item)
	if err != nil {
		respondError(c, cc.component(), err, "failed to update resource")
		return
	}
	c.JSON(http.StatusOK, items)
}

// Delete handles DELETE requests to remove a resource by name.
func (cc *CrudController[T]) Delete(c *gin.Context) {
	name, ok := cc.nameParam(c)
	if !ok {
		return
	}
	items, err := cc.Service.Remove(c.Request.Context(), name)
	if err != nil {
		respondError(c, cc.component(), err, "failed to delete resource")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (cc *CrudController[T]) bind(c *gin.Context) (T, bool) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return item, false
	}
	if cc.Validator != nil {
		if err := cc.Validator.Validate(item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return item, false
		}
	}
	return item, true
}

func (cc *CrudController[T]) nameParam(c *gin.Context) (string, bool) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing resource name"})
		return "", false
	}
	return name, true
}

func (cc *CrudController[T]) component() string {
	if cc.Component == "" {
		return "crud-controller"
	}
	return cc.Component
}
