package style

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a CSS hex fill color such as "#fcde9c".
type Color string

// Palette is an ordered list of fill colors assigned to buckets by position.
type Palette []Color

// DefaultPalette is the seven-step sunset ramp used by the demo layer.
var DefaultPalette = Palette{
	"#fcde9c",
	"#faa476",
	"#f0746e",
	"#e34f6f",
	"#dc3977",
	"#b9257a",
	"#7c1d6f",
}

// Validate checks that the palette is non-empty and every entry is a hex color.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return invalid("palette", "must contain at least one color")
	}
	for i, c := range p {
		if _, err := colorful.Hex(string(c)); err != nil {
			return invalid(fmt.Sprintf("palette[%d]", i), "%q is not a hex color", c)
		}
	}
	return nil
}

// Overflow decides which color a bucket gets when there are more buckets
// than palette entries.
type Overflow string

const (
	OverflowReject Overflow = "reject" // fail with ErrInvalidInput
	OverflowClamp  Overflow = "clamp"  // reuse the last color
	OverflowCycle  Overflow = "cycle"  // wrap around to the first color
)

// Validate checks that o is a known policy.
func (o Overflow) Validate() error {
	switch o {
	case OverflowReject, OverflowClamp, OverflowCycle:
		return nil
	}
	return invalid("overflow", "unknown policy %q (want reject, clamp or cycle)", o)
}

// Assignment pairs a bucket with the color it renders with.
type Assignment struct {
	Bucket Bucket
	Color  Color
}

// Assign pairs buckets[i] with palette[i]. Buckets past the end of the
// palette are handled according to overflow.
func Assign(buckets []Bucket, palette Palette, overflow Overflow) ([]Assignment, error) {
	if len(buckets) == 0 {
		return []Assignment{}, nil
	}
	if len(palette) == 0 {
		return nil, invalid("palette", "no colors to assign to %d buckets", len(buckets))
	}
	if err := overflow.Validate(); err != nil {
		return nil, err
	}
	if overflow == OverflowReject && len(buckets) > len(palette) {
		return nil, invalid("bins", "%d buckets exceed the %d-color palette", len(buckets), len(palette))
	}

	out := make([]Assignment, len(buckets))
	for i, b := range buckets {
		out[i] = Assignment{Bucket: b, Color: palette.at(i, overflow)}
	}
	return out, nil
}

func (p Palette) at(i int, overflow Overflow) Color {
	if i < len(p) {
		return p[i]
	}
	if overflow == OverflowCycle {
		return p[i%len(p)]
	}
	return p[len(p)-1]
}
