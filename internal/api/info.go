package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
)

type InfoHandler struct {
	version  string
	sessions *service.SessionStore
}

func NewInfoHandler(version string, sessions *service.SessionStore) *InfoHandler {
	return &InfoHandler{version: version, sessions: sessions}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	Layer     string   `json:"layer" doc:"Layer served to new sessions"`
	Attribute string   `json:"attribute" doc:"Attribute the layer is styled by"`
	Sessions  int      `json:"sessions" doc:"Open sessions"`
	Features  []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:      "plat-carto",
		Version:   h.version,
		Layer:     h.sessions.Layer().ID,
		Attribute: h.sessions.Config().Attribute,
		Sessions:  h.sessions.Len(),
		Features:  []string{"cartocss", "histogram-buckets", "datastar-sse", "sessions"},
	}}, nil
}
