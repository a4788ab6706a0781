package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Document is a CartoCSS style description handed to the map layer.
type Document string

// String returns the CartoCSS text.
func (d Document) String() string { return string(d) }

// ETag returns a strong entity tag for the document text.
func (d Document) ETag() string {
	return fmt.Sprintf(`"%016x"`, xxh3.HashString(string(d)))
}

// Base holds the marker properties every derived document declares before
// its rules.
type Base struct {
	MarkerWidth  float64 `json:"markerWidth" yaml:"marker_width" doc:"Marker diameter in pixels" example:"10"`
	FillOpacity  float64 `json:"fillOpacity" yaml:"fill_opacity" doc:"Marker fill opacity (0-1)" example:"0.7"`
	AllowOverlap bool    `json:"allowOverlap" yaml:"allow_overlap" doc:"Draw markers that overlap others"`
	LineWidth    float64 `json:"lineWidth" yaml:"line_width" doc:"Marker outline width" example:"0"`
	CompOp       string  `json:"compOp" yaml:"comp_op" doc:"Compositing operation" example:"multiply"`
}

// DefaultBase matches the demo layer's marker settings.
var DefaultBase = Base{
	MarkerWidth:  10,
	FillOpacity:  0.7,
	AllowOverlap: false,
	LineWidth:    0,
	CompOp:       "multiply",
}

// Declarations returns the five base declarations in document order.
func (b Base) Declarations() []string {
	return []string{
		"marker-width: " + FormatNumber(b.MarkerWidth) + ";",
		"marker-fill-opacity: " + FormatNumber(b.FillOpacity) + ";",
		"marker-allow-overlap: " + strconv.FormatBool(b.AllowOverlap) + ";",
		"marker-line-width: " + FormatNumber(b.LineWidth) + ";",
		"marker-comp-op: " + b.CompOp + ";",
	}
}

// Compose wraps the base declarations and rules in a selector block.
// Rules keep their input order: the renderer lets the last matching rule win.
func Compose(selector string, base Base, rules []string) Document {
	var sb strings.Builder
	sb.WriteString(selector)
	sb.WriteString(" {\n")
	for _, decl := range base.Declarations() {
		sb.WriteString("  ")
		sb.WriteString(decl)
		sb.WriteByte('\n')
	}
	for _, r := range rules {
		sb.WriteString(r)
	}
	sb.WriteString("}\n")
	return Document(sb.String())
}
