package controller

import (
	"errors"
	"net/http"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/logger"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/bassista/go_wind/internal/view"
	"github.com/gin-gonic/gin"
)

// ChartsSource is the public page the weather charts come from.
const ChartsSource = "https://www.dwd.de/DE/leistungen/hobbymet_wk_europa/hobbyeuropakarten.html"

var windUnits = []string{"kmh", "ms", "kt", "mph", "bft"}

// PageController renders the HTML pages.
type PageController struct {
	store       cache.ReadOnlyStore
	images      imagecache.Source
	filePath    string
	defaultView string
}

// NewPageController creates a PageController. defaultView overrides the root
// redirect target when it names an existing view.
func NewPageController(store cache.ReadOnlyStore, images imagecache.Source, filePath, defaultView string) *PageController {
	return &PageController{store: store, images: images, filePath: filePath, defaultView: defaultView}
}

// Root redirects to the first configured view, else to the overview.
func (pc *PageController) Root(c *gin.Context) {
	doc, ok := pc.snapshot(c)
	if !ok {
		return
	}
	target := view.DefaultView(&doc)
	if pc.defaultView != "" {
		if _, err := view.Compose(&doc, pc.defaultView); err == nil {
			target = pc.defaultView
		}
	}
	c.Redirect(http.StatusFound, view.ViewPath(target))
}

// View renders /view/:name.
func (pc *PageController) View(c *gin.Context) {
	doc, ok := pc.snapshot(c)
	if !ok {
		return
	}
	page, err := view.Compose(&doc, c.Param("name"))
	if err != nil {
		pc.renderError(c, &doc, err)
		return
	}
	pc.render(c, &doc, http.StatusOK, "dashboard.html", page.Name, page.Name, gin.H{
		"Page":         page,
		"Charts":       pc.charts(),
		"ChartsSource": ChartsSource,
	})
}

// Spot renders /spot/:name.
func (pc *PageController) Spot(c *gin.Context) {
	doc, ok := pc.snapshot(c)
	if !ok {
		return
	}
	page, err := view.ComposeSpot(&doc, c.Param("name"))
	if err != nil {
		pc.renderError(c, &doc, err)
		return
	}
	pc.render(c, &doc, http.StatusOK, "spot.html", page.Name, "", gin.H{"Page": page})
}

// Config renders the spot list editor.
func (pc *PageController) Config(c *gin.Context) {
	doc, ok := pc.snapshot(c)
	if !ok {
		return
	}
	pc.render(c, &doc, http.StatusOK, "config.html", "Configuration", "config", gin.H{
		"Document": doc,
		"FilePath": pc.filePath,
	})
}

// EditSpot renders the edit form of one spot.
func (pc *PageController) EditSpot(c *gin.Context) {
	doc, ok := pc.snapshot(c)
	if !ok {
		return
	}
	name := c.Param("name")
	spot, found := doc.Spots.Find(name)
	if !found {
		pc.renderError(c, &doc, repository.ErrSpotNotFound)
		return
	}
	pc.render(c, &doc, http.StatusOK, "edit.html", "Edit "+name, "config", gin.H{
		"Spot":      spot,
		"Windy":     spot.WindyOptions(),
		"WindUnits": windUnits,
	})
}

// NotFound renders the 404 page for unknown paths outside the API.
func (pc *PageController) NotFound(c *gin.Context) {
	doc, err := pc.store.Snapshot()
	if err != nil {
		doc = repository.Document{}
	}
	pc.render(c, &doc, http.StatusNotFound, "error.html", "Not found", "", gin.H{
		"Status":  http.StatusNotFound,
		"Message": "page not found",
	})
}

func (pc *PageController) snapshot(c *gin.Context) (repository.Document, bool) {
	doc, err := pc.store.Snapshot()
	if err != nil {
		logger.WithComponent("page-controller").Errorf("snapshot failed: %v", err)
		pc.renderError(c, &repository.Document{}, err)
		return repository.Document{}, false
	}
	return doc, true
}

func (pc *PageController) renderError(c *gin.Context, doc *repository.Document, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithComponent("page-controller").Errorf("%s: %v", c.Request.URL.Path, err)
		msg = "internal error"
	}
	if errors.Is(err, repository.ErrSpotNotFound) || errors.Is(err, view.ErrViewNotFound) {
		logger.WithComponent("page-controller").Debugf("%s: %v", c.Request.URL.Path, err)
	}
	pc.render(c, doc, status, "error.html", http.StatusText(status), "", gin.H{
		"Status":  status,
		"Message": msg,
	})
}

func (pc *PageController) render(c *gin.Context, doc *repository.Document, status int, tmpl, title, current string, data gin.H) {
	data["Title"] = title
	data["Current"] = current
	data["Views"] = view.ViewNames(doc)
	c.HTML(status, tmpl, data)
}

func (pc *PageController) charts() []imagecache.Chart {
	if pc.images == nil {
		return nil
	}
	return pc.images.Charts()
}
