// Package mapview describes the initial map viewport and the basemap the
// page draws under the styled layer.
package mapview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// maxLat is the latitude limit of the web mercator projection.
const maxLat = 85.0511287798

// MaxZoom is the deepest zoom the basemap serves.
const MaxZoom = 22

// View is the map's initial center and zoom.
type View struct {
	Center orb.Point
	Zoom   maptile.Zoom
}

// Madrid is the default view of the demo page.
var Madrid = View{Center: orb.Point{-3.7, 40.42}, Zoom: 13}

// Lat returns the center latitude.
func (v View) Lat() float64 { return v.Center.Lat() }

// Lon returns the center longitude.
func (v View) Lon() float64 { return v.Center.Lon() }

// Validate checks the view is inside the projection and zoom range.
func (v View) Validate() error {
	if v.Lat() < -maxLat || v.Lat() > maxLat {
		return fmt.Errorf("latitude %v out of range", v.Lat())
	}
	if v.Lon() < -180 || v.Lon() > 180 {
		return fmt.Errorf("longitude %v out of range", v.Lon())
	}
	if v.Zoom > MaxZoom {
		return fmt.Errorf("zoom %d exceeds %d", v.Zoom, MaxZoom)
	}
	return nil
}

// Tile returns the tile containing the view center.
func (v View) Tile() maptile.Tile {
	return maptile.At(v.Center, v.Zoom)
}

// Bound returns the bound of the center tile.
func (v View) Bound() orb.Bound {
	return v.Tile().Bound()
}

// Basemap is a raster tile source with a {s}/{z}/{x}/{y} URL template.
type Basemap struct {
	URL        string
	Subdomains []string
}

// Voyager is CARTO's label-free Voyager raster basemap.
var Voyager = Basemap{
	URL:        "https://{s}.basemaps.cartocdn.com/rastertiles/voyager_nolabels/{z}/{x}/{y}.png",
	Subdomains: []string{"a", "b", "c", "d"},
}

// TileURL expands the template for t. The subdomain is picked from the tile
// coordinates so the same tile always maps to the same host.
func (b Basemap) TileURL(t maptile.Tile) string {
	s := ""
	if len(b.Subdomains) > 0 {
		s = b.Subdomains[int((t.X+t.Y)%uint32(len(b.Subdomains)))]
	}
	r := strings.NewReplacer(
		"{s}", s,
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)
	return r.Replace(b.URL)
}

// FromState builds and validates a view from a center and zoom reported by
// the page.
func FromState(lat, lon float64, zoom int) (View, error) {
	if zoom < 0 {
		return View{}, fmt.Errorf("zoom %d is negative", zoom)
	}
	v := View{Center: orb.Point{lon, lat}, Zoom: maptile.Zoom(zoom)}
	return v, v.Validate()
}
