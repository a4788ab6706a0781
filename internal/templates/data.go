package templates

import (
	"github.com/joeblew999/plat-carto/internal/carto"
	"github.com/joeblew999/plat-carto/internal/mapview"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/style"
)

// LegendData feeds the "legend" fragment.
type LegendData struct {
	Attribute string
	Entries   []style.LegendEntry
}

// PageData feeds the "page" template for one session.
type PageData struct {
	Title     string
	SessionID string
	Attribute string
	Layer     service.LayerConfig
	Client    carto.Client
	View      mapview.View
	Legend    LegendData

	BasemapURL string
	Subdomains []string

	EventsURL  string
	BucketsURL string
	ReadyURL   string
	SessionURL string
}
