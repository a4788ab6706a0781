package style

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Bucket is one bin of a value distribution reported by the histogram widget.
// Only the inclusive lower bound is consumed.
type Bucket struct {
	Start float64 `json:"start" doc:"Inclusive lower bound of the bin" example:"50"`
}

// BucketData is the payload the widget sends whenever its bins change.
type BucketData struct {
	Bins []Bucket `json:"bins" doc:"Ordered bins, ascending by start"`
}

// ParseBucketData decodes widget bucket data. Fields other than bins[].start
// are ignored.
func ParseBucketData(raw []byte) (BucketData, error) {
	var wire struct {
		Bins json.RawMessage `json:"bins"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return BucketData{}, invalid("", "malformed bucket data: %v", err)
	}
	if len(wire.Bins) == 0 || isNull(wire.Bins) {
		return BucketData{}, invalid("bins", "missing")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(wire.Bins, &elems); err != nil {
		return BucketData{}, invalid("bins", "must be an array")
	}

	bins := make([]Bucket, 0, len(elems))
	for i, elem := range elems {
		var bin map[string]json.RawMessage
		if err := json.Unmarshal(elem, &bin); err != nil || bin == nil {
			return BucketData{}, invalid(fmt.Sprintf("bins[%d]", i), "must be an object")
		}
		field := fmt.Sprintf("bins[%d].start", i)
		rawStart, ok := bin["start"]
		if !ok || isNull(rawStart) {
			return BucketData{}, invalid(field, "missing")
		}
		var start float64
		if err := json.Unmarshal(rawStart, &start); err != nil {
			return BucketData{}, invalid(field, "not a number: %s", rawStart)
		}
		bins = append(bins, Bucket{Start: start})
	}

	data := BucketData{Bins: bins}
	if err := data.Validate(); err != nil {
		return BucketData{}, err
	}
	return data, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Validate checks that every start is a finite number.
func (d BucketData) Validate() error {
	if d.Bins == nil {
		return invalid("bins", "missing")
	}
	for i, b := range d.Bins {
		if math.IsNaN(b.Start) || math.IsInf(b.Start, 0) {
			return invalid(fmt.Sprintf("bins[%d].start", i), "not a finite number")
		}
	}
	return nil
}
