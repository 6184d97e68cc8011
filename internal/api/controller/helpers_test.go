package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bassista/go_wind/internal/cache"
	"github.com/bassista/go_wind/internal/imagecache"
	"github.com/bassista/go_wind/internal/repository"
	"github.com/bassista/go_wind/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func testDocument() repository.Document {
	return repository.Document{
		Rotation: repository.Rotation{Enabled: false, IntervalSeconds: 30},
		Spots: repository.SpotList{
			{Name: "X", Provider: "windy", Lat: floatPtr(47.5), Lon: floatPtr(9.5)},
			{Name: "Torbole", Provider: repository.ProviderWindfinder, Windfinder: &repository.WindfinderOptions{WidgetSrc: "https://www.windfinder.com/widget/forecast/js/torbole"}},
			{Name: "Walensee", Lat: floatPtr(47.12), Lon: floatPtr(9.2)},
		},
		Views: []repository.ViewDef{{Name: "south", Spots: []string{"X", "Torbole"}}},
	}
}

// countingSaver counts saves and can fail.
type countingSaver struct {
	err   error
	count int
}

func (s *countingSaver) Save(ctx context.Context, doc *repository.Document) error {
	if s.err != nil {
		return s.err
	}
	s.count++
	return nil
}

// fakeImages implements imagecache.Source.
type fakeImages struct {
	path string
	err  error
}

func (f *fakeImages) Get(ctx context.Context, key string) (string, error) {
	if key != "analysis" {
		return "", imagecache.ErrUnknownKey
	}
	if f.err != nil {
		return "", f.err
	}
	return f.path, nil
}

func (f *fakeImages) Charts() []imagecache.Chart {
	return []imagecache.Chart{{Key: "analysis", Title: "Surface pressure analysis"}}
}

func newFakeImages(t *testing.T) *fakeImages {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analysis.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0o644))
	return &fakeImages{path: path}
}

// testServer wires every controller onto a fresh engine the way the routes do.
func testServer(t *testing.T, saver repository.Saver) (*gin.Engine, *cache.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := cache.NewStore(testDocument(), saver)
	images := newFakeImages(t)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)

	pc := NewPageController(store, images, "/data/spots.yaml", "")
	r.GET("/", pc.Root)
	r.GET("/view/:name", pc.View)
	r.GET("/spot/:name", pc.Spot)
	r.GET("/config", pc.Config)
	r.GET("/config/spot/:name", pc.EditSpot)
	r.NoRoute(pc.NotFound)

	api := r.Group("/api")
	sc := NewSpotController(store)
	api.GET("/spots", sc.AllSpots)
	api.GET("/spot/:name", sc.GetSpot)
	api.POST("/spot", sc.CreateSpot)
	api.PUT("/spot/:name", sc.UpdateSpot)
	api.DELETE("/spot/:name", sc.DeleteSpot)
	api.PUT("/spots/order", sc.ReorderSpots)
	api.PUT("/spot/:name/rename", sc.RenameSpot)

	cc := NewConfigurationController(store)
	api.GET("/config", cc.GetConfiguration)
	api.PUT("/config/rotation", cc.UpdateRotation)
	api.GET("/views", cc.GetViews)

	ic := NewImageController(images, "public, max-age=600")
	r.GET("/images/:key", ic.GetImage)

	return r, store
}

var errDiskFull = errors.New("disk full")
