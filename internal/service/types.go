// Package service holds the per-session application state of the map page:
// the style controller, the map readiness signal and the change bus.
package service

import (
	"github.com/joeblew999/plat-carto/internal/carto"
)

// LayerConfig describes the styled point layer mounted on the map.
type LayerConfig struct {
	ID           string       `json:"id" doc:"Layer identifier" example:"airbnb"`
	Name         string       `json:"name" doc:"Display name" example:"Airbnb listings"`
	Source       carto.Source `json:"source" doc:"Dataset the layer and widget read from"`
	DefaultStyle string       `json:"defaultStyle" doc:"CartoCSS shown before any bins arrive"`
}

// DefaultLayer is the demo layer: Madrid listings colored by price.
var DefaultLayer = LayerConfig{
	ID:           "airbnb",
	Name:         "Airbnb listings",
	Source:       carto.Airbnb,
	DefaultStyle: carto.DefaultStyle,
}

// MapState is what the page reports once its map instance exists.
type MapState struct {
	Lat  float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Center latitude" example:"40.42"`
	Lon  float64 `json:"lon" minimum:"-180" maximum:"180" doc:"Center longitude" example:"-3.7"`
	Zoom int     `json:"zoom" minimum:"0" maximum:"22" doc:"Zoom level" example:"13"`
}
