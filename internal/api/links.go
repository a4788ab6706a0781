package api

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/config>; rel="config"`,
		`</api/v1/map>; rel="map"`,
		`</api/v1/sessions>; rel="sessions"`,
		`</openapi.json>; rel="service-desc"`,
		`</docs>; rel="service-doc"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/config>; rel="config"`,
	},
	"/api/v1/config": {
		`</api/v1/style/preview>; rel="preview"`,
		`</health>; rel="up"`,
	},
	"/api/v1/map": {
		`</api/v1/sessions>; rel="sessions"`,
		`</health>; rel="up"`,
	},
	"/api/v1/style/preview": {
		`</api/v1/config>; rel="config"`,
	},
	"/api/v1/sessions": {
		`</api/v1/sessions/{id}>; rel="item"`,
		`</health>; rel="up"`,
	},
	"/api/v1/sessions/{id}": {
		`</api/v1/sessions>; rel="collection"`,
	},
	"/api/v1/sessions/{id}/style": {
		`</api/v1/config>; rel="config"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers,
// plus the state-dependent actions of bodies implementing humastar.Actor.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if a, ok := v.(humastar.Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}
