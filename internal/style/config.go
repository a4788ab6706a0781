// Package style derives CartoCSS documents from histogram bucket boundaries.
//
// The pipeline is Assign (bucket → palette color) → BuildRule (one
// conditional fill per bucket) → Compose (base marker block + rules).
// Every step is pure; Config bundles the constants they read.
package style

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the static inputs of style derivation.
type Config struct {
	Selector  string   `json:"selector" yaml:"selector" doc:"Layer selector the rules are scoped to" example:"#layer"`
	Attribute string   `json:"attribute" yaml:"attribute" doc:"Numeric record attribute compared in each rule" example:"price"`
	Palette   Palette  `json:"palette" yaml:"palette" doc:"Ordered fill colors, one per bucket"`
	Base      Base     `json:"base" yaml:"base" doc:"Marker properties declared before the rules"`
	Overflow  Overflow `json:"overflow" yaml:"overflow" enum:"reject,clamp,cycle" doc:"What to do with more buckets than colors"`
}

// DefaultConfig returns the demo layer configuration.
func DefaultConfig() Config {
	return Config{
		Selector:  "#layer",
		Attribute: "price",
		Palette:   append(Palette(nil), DefaultPalette...),
		Base:      DefaultBase,
		Overflow:  OverflowReject,
	}
}

// LoadConfig reads a YAML style config. Keys that are absent keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading style config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing style config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("style config %s: %w", path, err)
	}
	return cfg, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks every field.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Selector, "#") || len(c.Selector) < 2 {
		return invalid("selector", "%q must be a #layer selector", c.Selector)
	}
	if !identRe.MatchString(c.Attribute) {
		return invalid("attribute", "%q is not an identifier", c.Attribute)
	}
	if err := c.Palette.Validate(); err != nil {
		return err
	}
	if err := c.Overflow.Validate(); err != nil {
		return err
	}
	b := c.Base
	if b.MarkerWidth < 0 {
		return invalid("base.marker_width", "must not be negative")
	}
	if b.FillOpacity < 0 || b.FillOpacity > 1 {
		return invalid("base.fill_opacity", "must be between 0 and 1")
	}
	if b.LineWidth < 0 {
		return invalid("base.line_width", "must not be negative")
	}
	if strings.TrimSpace(b.CompOp) == "" {
		return invalid("base.comp_op", "must not be empty")
	}
	return nil
}

// Build runs the full derivation for buckets and returns the document along
// with the color assignments it was built from.
func (c Config) Build(buckets []Bucket) (Document, []Assignment, error) {
	assigned, err := Assign(buckets, c.Palette, c.Overflow)
	if err != nil {
		return "", nil, err
	}
	rules := make([]string, len(assigned))
	for i, a := range assigned {
		rules[i] = BuildRule(c.Attribute, a)
	}
	return Compose(c.Selector, c.Base, rules), assigned, nil
}

// LegendEntry is one swatch of the page legend.
type LegendEntry struct {
	Color Color   `json:"color" doc:"Fill color" example:"#fcde9c"`
	Label string  `json:"label" doc:"Human readable lower bound" example:"≥ 50"`
	Start float64 `json:"start" doc:"Bucket lower bound" example:"50"`
}

// Legend turns assignments into legend entries in the same order.
func Legend(assigned []Assignment) []LegendEntry {
	out := make([]LegendEntry, len(assigned))
	for i, a := range assigned {
		out[i] = LegendEntry{
			Color: a.Color,
			Label: "≥ " + FormatNumber(a.Bucket.Start),
			Start: a.Bucket.Start,
		}
	}
	return out
}
