package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultRotationInterval applies when the file has no rotation section.
const DefaultRotationInterval = 30

// SpotNameRule keeps spot names usable as a single URL path segment.
const SpotNameRule = "required,max=80,excludesall=/?#"

var (
	ErrSpotNotFound       = errors.New("spot not found")
	ErrMissingCoordinates = errors.New("missing lat/lon")
	ErrMissingWidgetSrc   = errors.New("missing windfinder.widget_src")
)

// Provider names the external widget source of a spot.
type Provider string

const (
	ProviderWindy      Provider = "windy"
	ProviderWindfinder Provider = "windfinder"
)

// Document is the persisted spots file.
type Document struct {
	Rotation Rotation  `yaml:"rotation" json:"rotation"`
	Spots    SpotList  `yaml:"spots" json:"spots"`
	Views    []ViewDef `yaml:"views,omitempty" json:"views,omitempty" validate:"dive"`
}

// Rotation controls automatic cycling through the dashboard views.
type Rotation struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds" json:"interval_seconds" validate:"min=5,max=86400"`
}

// Spot is a named windsurf location. Name is the mapping key in the file.
type Spot struct {
	Name       string             `yaml:"-" json:"name" validate:"required,max=80,excludesall=/?#"`
	Provider   Provider           `yaml:"provider,omitempty" json:"provider,omitempty" validate:"omitempty,oneof=windy windfinder"`
	Lat        *float64           `yaml:"lat,omitempty" json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lon        *float64           `yaml:"lon,omitempty" json:"lon,omitempty" validate:"omitempty,min=-180,max=180"`
	Directions []string           `yaml:"directions,omitempty" json:"directions,omitempty" validate:"dive,required,max=8"`
	Windy      *WindyOptions      `yaml:"windy,omitempty" json:"windy,omitempty"`
	Windfinder *WindfinderOptions `yaml:"windfinder,omitempty" json:"windfinder,omitempty"`

	// Invalid holds the decode error of a spot whose file entry could not be
	// read. Such spots are listed but never rendered or re-encoded.
	Invalid string `yaml:"-" json:"invalid,omitempty"`
}

// WindyOptions tunes the Windy embed. Nil or empty fields fall back to the
// documented defaults through Resolved.
type WindyOptions struct {
	Zoom      *int   `yaml:"zoom,omitempty" json:"zoom,omitempty" validate:"omitempty,min=3,max=17"`
	Overlay   string `yaml:"overlay,omitempty" json:"overlay,omitempty" validate:"omitempty,oneof=wind gust gustAccu rain temp clouds waves swell1 pressure"`
	UnitsWind string `yaml:"units_wind,omitempty" json:"units_wind,omitempty" validate:"omitempty,oneof=kmh ms kt mph bft"`
	Marker    *bool  `yaml:"marker,omitempty" json:"marker,omitempty"`
	Detail    *bool  `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// ResolvedWindyOptions is WindyOptions with every default filled in.
type ResolvedWindyOptions struct {
	Zoom      int
	Overlay   string
	UnitsWind string
	Marker    bool
	Detail    bool
}

// WindfinderOptions holds the prebuilt widget source copied from windfinder.com.
type WindfinderOptions struct {
	WidgetSrc string `yaml:"widget_src" json:"widget_src" validate:"required,url"`
}

// ViewDef is an explicitly configured group of spots.
type ViewDef struct {
	Name       string   `yaml:"name" json:"name" validate:"required,excludesall=/?#"`
	Spots      []string `yaml:"spots" json:"spots"`
	ShowCharts bool     `yaml:"show_charts,omitempty" json:"show_charts,omitempty"`
	ShowDWD    bool     `yaml:"show_dwd,omitempty" json:"show_dwd,omitempty"`
}

// WantsCharts reports whether the weather charts belong on this view.
// show_dwd is the older spelling of show_charts.
func (v ViewDef) WantsCharts() bool {
	return v.ShowCharts || v.ShowDWD
}

// SpotList keeps spots in file order. It is a YAML mapping keyed by name.
type SpotList []Spot

func (l *SpotList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
		*l = SpotList{}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: spots must be a mapping of name to spot", value.Line)
	}

	seen := make(map[string]bool, len(value.Content)/2)
	out := make(SpotList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, body := value.Content[i], value.Content[i+1]
		name := key.Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate spot %q", key.Line, name)
		}
		seen[name] = true

		var s Spot
		if !(body.Kind == yaml.ScalarNode && body.ShortTag() == "!!null") {
			if err := body.Decode(&s); err != nil {
				s = Spot{Invalid: decodeErrorText(err)}
			}
		}
		s.Name = name
		out = append(out, s)
	}
	*l = out
	return nil
}

func (l SpotList) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, s := range l {
		var body yaml.Node
		if s.Invalid != "" {
			// the file keeps the original body; see mergeSpots
			body = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		} else if err := body.Encode(s); err != nil {
			return nil, fmt.Errorf("encode spot %q: %w", s.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name},
			&body,
		)
	}
	return node, nil
}

// decodeErrorText shortens yaml.v3 type errors to their line messages.
func decodeErrorText(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return strings.Join(typeErr.Errors, "; ")
	}
	return err.Error()
}

// Invalid returns the names of spots that could not be decoded.
func (l SpotList) Invalid() []string {
	var names []string
	for _, s := range l {
		if s.Invalid != "" {
			names = append(names, s.Name)
		}
	}
	return names
}

// Names returns spot names in order.
func (l SpotList) Names() []string {
	names := make([]string, len(l))
	for i, s := range l {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of the named spot or -1.
func (l SpotList) Index(name string) int {
	for i := range l {
		if l[i].Name == name {
			return i
		}
	}
	return -1
}

// Find returns a copy of the named spot.
func (l SpotList) Find(name string) (Spot, bool) {
	if i := l.Index(name); i >= 0 {
		return l[i], true
	}
	return Spot{}, false
}

// Kind is the effective provider: case-insensitive, windy when unset.
func (s Spot) Kind() Provider {
	p := Provider(strings.ToLower(strings.TrimSpace(string(s.Provider))))
	if p == "" {
		return ProviderWindy
	}
	return p
}

// Coordinates returns the spot position or ErrMissingCoordinates.
func (s Spot) Coordinates() (lat, lon float64, err error) {
	if s.Lat == nil || s.Lon == nil {
		return 0, 0, ErrMissingCoordinates
	}
	return *s.Lat, *s.Lon, nil
}

// WidgetSrc returns the Windfinder widget source or ErrMissingWidgetSrc.
func (s Spot) WidgetSrc() (string, error) {
	if s.Windfinder == nil || strings.TrimSpace(s.Windfinder.WidgetSrc) == "" {
		return "", ErrMissingWidgetSrc
	}
	return s.Windfinder.WidgetSrc, nil
}

// WindyOptions returns the spot's Windy options with defaults applied.
func (s Spot) WindyOptions() ResolvedWindyOptions {
	return s.Windy.Resolved()
}

// Resolved fills defaults: zoom 10, overlay wind, units kmh, marker and detail on.
func (o *WindyOptions) Resolved() ResolvedWindyOptions {
	r := ResolvedWindyOptions{Zoom: 10, Overlay: "wind", UnitsWind: "kmh", Marker: true, Detail: true}
	if o == nil {
		return r
	}
	if o.Zoom != nil {
		r.Zoom = *o.Zoom
	}
	if o.Overlay != "" {
		r.Overlay = o.Overlay
	}
	if o.UnitsWind != "" {
		r.UnitsWind = o.UnitsWind
	}
	if o.Marker != nil {
		r.Marker = *o.Marker
	}
	if o.Detail != nil {
		r.Detail = *o.Detail
	}
	return r
}

// ApplyDefaults fills sections missing from the file.
func (d *Document) ApplyDefaults() {
	if d.Rotation.IntervalSeconds == 0 {
		d.Rotation.IntervalSeconds = DefaultRotationInterval
	}
	if d.Spots == nil {
		d.Spots = SpotList{}
	}
	for i := range d.Views {
		if d.Views[i].Spots == nil {
			d.Views[i].Spots = []string{}
		}
	}
}

// FindView returns the explicitly configured view with that name.
func (d *Document) FindView(name string) (ViewDef, bool) {
	for _, v := range d.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewDef{}, false
}

// NewValidator returns a validator that also enforces the provider-specific
// fields of a Spot.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(spotStructLevel, Spot{})
	return v
}

func spotStructLevel(sl validator.StructLevel) {
	s := sl.Current().Interface().(Spot)
	if s.Invalid != "" {
		sl.ReportError(s.Invalid, "Invalid", "invalid", "decodable", "")
		return
	}
	switch s.Kind() {
	case ProviderWindy:
		if s.Lat == nil {
			sl.ReportError(s.Lat, "Lat", "lat", "required_for_windy", "")
		}
		if s.Lon == nil {
			sl.ReportError(s.Lon, "Lon", "lon", "required_for_windy", "")
		}
	case ProviderWindfinder:
		if s.Windfinder == nil {
			sl.ReportError(s.Windfinder, "Windfinder", "windfinder", "required_for_windfinder", "")
		}
	}
}

// ValidateSpot checks a spot submitted through the API.
func ValidateSpot(v *validator.Validate, s Spot) error {
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("invalid spot: %w", err)
	}
	return nil
}

// AreDocumentsEqual compares two documents as plain data.
func AreDocumentsEqual(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}

	aBytes, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bBytes, err := json.Marshal(b)
	if err != nil {
		return false
	}

	var aMap, bMap map[string]interface{}
	if err := json.Unmarshal(aBytes, &aMap); err != nil {
		return false
	}
	if err := json.Unmarshal(bBytes, &bMap); err != nil {
		return false
	}

	return reflect.DeepEqual(aMap, bMap)
}
