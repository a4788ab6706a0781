package carto

// Source is a dataset the map layer and the histogram widget read from.
type Source struct {
	ID     string `json:"id" yaml:"id" doc:"Source identifier" example:"airbnb"`
	Query  string `json:"query" yaml:"query" doc:"SQL the hosted service evaluates" example:"SELECT * FROM airbnb_listings"`
	Column string `json:"column" yaml:"column" doc:"Numeric column the histogram widget buckets" example:"price"`
	Bins   int    `json:"bins" yaml:"bins" doc:"Number of histogram bins the widget requests" example:"7"`
}

// Airbnb is the Madrid listings dataset the demo page styles by price.
var Airbnb = Source{
	ID:     "airbnb",
	Query:  "SELECT * FROM airbnb_listings",
	Column: "price",
	Bins:   7,
}

// DefaultStyle is the layer style shown before the widget reports any bins.
const DefaultStyle = `#layer {
  marker-width: 7;
  marker-fill: #EE4D5A;
  marker-fill-opacity: 0.9;
  marker-line-color: #FFFFFF;
  marker-line-width: 1;
  marker-allow-overlap: true;
}
`
