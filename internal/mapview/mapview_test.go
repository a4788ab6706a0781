package mapview

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

func TestMadridTile(t *testing.T) {
	tile := Madrid.Tile()
	if tile.Z != 13 {
		t.Fatalf("Z = %d, want 13", tile.Z)
	}
	if !Madrid.Bound().Contains(Madrid.Center) {
		t.Errorf("center %v not inside its tile bound %v", Madrid.Center, Madrid.Bound())
	}
	if err := Madrid.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		view View
		ok   bool
	}{
		{"madrid", Madrid, true},
		{"pole", View{Center: orb.Point{0, 89}, Zoom: 3}, false},
		{"antimeridian", View{Center: orb.Point{181, 0}, Zoom: 3}, false},
		{"deep zoom", View{Center: orb.Point{0, 0}, Zoom: 23}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestTileURL(t *testing.T) {
	got := Voyager.TileURL(maptile.New(4013, 3080, 13))
	want := "https://b.basemaps.cartocdn.com/rastertiles/voyager_nolabels/13/4013/3080.png"
	if got != want {
		t.Errorf("TileURL() = %q, want %q", got, want)
	}

	plain := Basemap{URL: "https://tiles.example.com/{z}/{x}/{y}.png"}
	if got := plain.TileURL(maptile.New(1, 2, 3)); got != "https://tiles.example.com/3/1/2.png" {
		t.Errorf("TileURL() without subdomains = %q", got)
	}

	if u := Voyager.TileURL(Madrid.Tile()); strings.Contains(u, "{") {
		t.Errorf("unexpanded placeholder in %q", u)
	}
}

func TestFromState(t *testing.T) {
	v, err := FromState(40.42, -3.7, 13)
	if err != nil {
		t.Fatalf("FromState() error: %v", err)
	}
	if v.Lat() != 40.42 || v.Lon() != -3.7 || v.Zoom != 13 {
		t.Errorf("FromState() = %+v", v)
	}
	if _, err := FromState(0, 0, -1); err == nil {
		t.Error("negative zoom should fail")
	}
	if _, err := FromState(90, 0, 3); err == nil {
		t.Error("latitude 90 should fail")
	}
}
