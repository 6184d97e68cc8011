// Package view turns the spots document into the cards of one rendered page.
// Pages are recomputed on every request and never stored.
package view

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/bassista/go_wind/internal/repository"
	"github.com/bassista/go_wind/internal/widget"
)

// OverviewName is the derived view listing every spot.
const OverviewName = "overview"

var (
	ErrViewNotFound = errors.New("view not found")
	ErrSpotNotFound = repository.ErrSpotNotFound
)

// Kind tells how a page was resolved.
type Kind string

const (
	KindConfigured Kind = "configured"
	KindOverview   Kind = "overview"
	KindSpotView   Kind = "spot-view"
	KindDetail     Kind = "detail"
)

// Card is one widget slot on a page. Placeholder cards carry an explanatory
// title and no URL.
type Card struct {
	Spot        string              `json:"spot"`
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Provider    repository.Provider `json:"provider,omitempty"`
	Directions  []string            `json:"directions,omitempty"`
	DetailLink  string              `json:"detail_link,omitempty"`
	ViewLink    string              `json:"view_link,omitempty"`
	Placeholder bool                `json:"placeholder"`
}

// Page is everything a dashboard template needs.
type Page struct {
	Name       string              `json:"name"`
	Kind       Kind                `json:"kind"`
	Variant    widget.Variant      `json:"-"`
	Cards      []Card              `json:"cards"`
	ShowCharts bool                `json:"show_charts"`
	Views      []string            `json:"views"`
	Spots      []string            `json:"spots"`
	Rotation   repository.Rotation `json:"rotation"`
}

// NextView is the view rotation moves to after this page. Pages outside the
// rotation continue with the first view.
func (p *Page) NextView() string {
	if len(p.Views) == 0 {
		return OverviewName
	}
	for i, name := range p.Views {
		if name == p.Name && p.Kind != KindSpotView && p.Kind != KindDetail {
			return p.Views[(i+1)%len(p.Views)]
		}
	}
	return p.Views[0]
}

// Rotates reports whether the page should move on by itself. Pages with a
// live Windfinder widget never rotate.
func (p *Page) Rotates() bool {
	if !p.Rotation.Enabled {
		return false
	}
	for _, c := range p.Cards {
		if c.Provider == repository.ProviderWindfinder && !c.Placeholder {
			return false
		}
	}
	return true
}

// ViewNames lists the views a visitor can navigate to, in rotation order:
// configured views first, then the overview.
func ViewNames(doc *repository.Document) []string {
	names := make([]string, 0, len(doc.Views)+1)
	hasOverview := false
	for _, v := range doc.Views {
		names = append(names, v.Name)
		if v.Name == OverviewName {
			hasOverview = true
		}
	}
	if !hasOverview {
		names = append(names, OverviewName)
	}
	return names
}

// DefaultView is the view the root path redirects to.
func DefaultView(doc *repository.Document) string {
	if len(doc.Views) > 0 {
		return doc.Views[0].Name
	}
	return OverviewName
}

// Compose resolves name to a page. A configured view wins over the overview,
// which wins over a spot of the same name.
func Compose(doc *repository.Document, name string) (*Page, error) {
	if v, ok := doc.FindView(name); ok {
		variant := widget.Compact
		if len(v.Spots) == 1 {
			variant = widget.Expanded
		}
		return build(doc, name, KindConfigured, v.Spots, variant, v.WantsCharts()), nil
	}

	if name == OverviewName {
		return build(doc, name, KindOverview, doc.Spots.Names(), widget.Compact, true), nil
	}

	if doc.Spots.Index(name) >= 0 {
		return build(doc, name, KindSpotView, []string{name}, widget.Expanded, false), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
}

// ComposeSpot builds the detail page of a single spot.
func ComposeSpot(doc *repository.Document, name string) (*Page, error) {
	if doc.Spots.Index(name) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSpotNotFound, name)
	}
	return build(doc, name, KindDetail, []string{name}, widget.Expanded, false), nil
}

func build(doc *repository.Document, name string, kind Kind, members []string, variant widget.Variant, charts bool) *Page {
	p := &Page{
		Name:       name,
		Kind:       kind,
		Variant:    variant,
		ShowCharts: charts,
		Views:      ViewNames(doc),
		Spots:      doc.Spots.Names(),
		Rotation:   doc.Rotation,
		Cards:      make([]Card, 0, len(members)),
	}

	multi := len(members) > 1
	windfinders := 0
	for _, member := range members {
		card := cardFor(doc, member, variant)
		if !card.Placeholder && card.Provider == repository.ProviderWindfinder {
			windfinders++
			if windfinders > widget.MaxWindfinderPerPage {
				card = placeholder(member, "windfinder limit reached")
			}
		}
		if !card.Placeholder {
			card.DetailLink = SpotPath(member)
			if multi {
				card.ViewLink = ViewPath(member)
			}
		}
		p.Cards = append(p.Cards, card)
	}
	return p
}

func cardFor(doc *repository.Document, name string, variant widget.Variant) Card {
	spot, ok := doc.Spots.Find(name)
	if !ok {
		return placeholder(name, "missing in config")
	}
	if spot.Invalid != "" {
		return placeholder(name, "invalid: "+spot.Invalid)
	}

	switch kind := spot.Kind(); kind {
	case repository.ProviderWindy:
		lat, lon, err := spot.Coordinates()
		if err != nil {
			return placeholder(name, err.Error())
		}
		return Card{
			Spot:       name,
			Title:      name,
			URL:        widget.WindyURL(lat, lon, spot.WindyOptions(), variant),
			Provider:   kind,
			Directions: spot.Directions,
		}
	case repository.ProviderWindfinder:
		src, err := spot.WidgetSrc()
		if err != nil {
			return placeholder(name, err.Error())
		}
		return Card{
			Spot:       name,
			Title:      name,
			URL:        widget.WindfinderURL(src),
			Provider:   kind,
			Directions: spot.Directions,
		}
	default:
		return placeholder(name, "unknown provider: "+string(kind))
	}
}

func placeholder(name, reason string) Card {
	return Card{Spot: name, Title: fmt.Sprintf("%s (%s)", name, reason), Placeholder: true}
}

// ViewPath is the dashboard URL of a view.
func ViewPath(name string) string {
	return "/view/" + url.PathEscape(name)
}

// SpotPath is the detail page URL of a spot.
func SpotPath(name string) string {
	return "/spot/" + url.PathEscape(name)
}
