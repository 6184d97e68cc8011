// Package widget builds embed URLs for the supported forecast providers.
// The builders do no I/O and no validation beyond what their arguments carry.
package widget

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/bassista/go_wind/internal/repository"
)

// Variant selects how large a widget is rendered.
type Variant int

const (
	// Compact is the forecast-only embed used on multi-spot pages.
	Compact Variant = iota
	// Expanded is the interactive map used on single-spot pages.
	Expanded
)

func (v Variant) String() string {
	if v == Expanded {
		return "expanded"
	}
	return "compact"
}

const (
	windyMapBase      = "https://embed.windy.com/embed2.html"
	windyForecastBase = "https://embed.windy.com/embed.html"
)

// WindyMapURL returns the full Windy map embed for a position.
// Coordinates are written with five decimals.
func WindyMapURL(lat, lon float64, opts repository.ResolvedWindyOptions) string {
	return fmt.Sprintf(
		"%s?lat=%s&lon=%s&zoom=%d&level=surface&overlay=%s&marker=%t&location=coordinates&detail=%t&detailLat=%s&detailLon=%s&metricWind=%s&metricTemp=C",
		windyMapBase,
		coord(lat), coord(lon),
		opts.Zoom,
		url.QueryEscape(opts.Overlay),
		opts.Marker,
		opts.Detail,
		coord(lat), coord(lon),
		url.QueryEscape(opts.UnitsWind),
	)
}

// WindyForecastURL returns the compact forecast-only embed. The overlay is
// fixed to wind; only the wind unit is taken from opts.
func WindyForecastURL(lat, lon float64, opts repository.ResolvedWindyOptions) string {
	return fmt.Sprintf(
		"%s?type=forecast&location=coordinates&detail=true&detailLat=%s&detailLon=%s&overlay=wind&metricWind=%s&metricTemp=C",
		windyForecastBase,
		coord(lat), coord(lon),
		url.QueryEscape(opts.UnitsWind),
	)
}

// WindyURL picks the builder for the given variant.
func WindyURL(lat, lon float64, opts repository.ResolvedWindyOptions, v Variant) string {
	if v == Expanded {
		return WindyMapURL(lat, lon, opts)
	}
	return WindyForecastURL(lat, lon, opts)
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}
