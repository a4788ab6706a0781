package style

import (
	"fmt"
	"strconv"
)

// BuildRule renders the conditional fill rule for one assignment:
// records whose attribute is >= the bucket start are filled with its color.
// Rules are indented to sit inside a Compose block.
func BuildRule(attribute string, a Assignment) string {
	return fmt.Sprintf("  [%s >= %s] {\n    marker-fill: %s;\n  }\n",
		attribute, FormatNumber(a.Bucket.Start), a.Color)
}

// FormatNumber prints f in its shortest round-trip decimal form, never in
// exponent notation, which CartoCSS does not accept.
func FormatNumber(f float64) string {
	if f == 0 {
		// collapses -0
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
