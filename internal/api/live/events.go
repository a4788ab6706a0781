// Package live streams style changes to the map page over Datastar SSE.
package live

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/templates"
)

// Handler binds a session's layer to the page once its map exists and
// re-patches the layer style whenever the session's style changes.
type Handler struct {
	humastar.Handler
	sessions *service.SessionStore
	bus      *service.EventBus
	logger   *log.Logger
}

// NewHandler creates a live handler.
func NewHandler(sessions *service.SessionStore, bus *service.EventBus, renderer *templates.Renderer, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
		bus:      bus,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/live/sessions/{id}/events", h.Events,
		huma.OperationTags("live"),
	)
}

type SessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, err := h.sessions.Attach(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}

	return h.Stream(func(humaCtx huma.Context, sse humastar.SSE) {
		defer h.sessions.Detach(sess)
		ctx := humaCtx.Context()
		// Subscribe before the first push so no update between them is lost.
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)
		if _, err := h.sessions.Get(sess.ID); err != nil {
			sse.Error("session closed")
			return
		}

		// Wait for the page's map instance.
		for waiting := true; waiting; {
			select {
			case <-ctx.Done():
				return
			case <-sess.Map.Done():
				waiting = false
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if closed(ev, sess) {
					sse.Error("session closed")
					return
				}
			}
		}
		h.logger.Debug("layer attached", "session", sess.ID)
		if err := h.push(sse, sess, true); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				switch {
				case closed(ev, sess):
					sse.Error("session closed")
					return
				case ev.ID == sess.ID && ev.Resource == "style":
					if err := h.push(sse, sess, false); err != nil {
						return
					}
				}
			}
		}
	}), nil
}

func closed(ev service.Event, sess *service.Session) bool {
	return ev.ID == sess.ID && ev.Resource == "sessions" && ev.Action == "deleted"
}

// push sends the held style. attach also sends the layer source, which the
// page only needs once.
func (h *Handler) push(sse humastar.SSE, sess *service.Session, attach bool) error {
	snap := sess.Style.Current()
	signals := map[string]any{
		"layerStyle":    snap.Document.String(),
		"styleRevision": snap.Revision,
	}
	if attach {
		signals["layerSource"] = sess.Layer.Source.Query
	}
	if err := sse.Signals(signals); err != nil {
		return err
	}

	legend := h.Fragment("legend", templates.LegendData{
		Attribute: h.sessions.Config().Attribute,
		Entries:   snap.Legend,
	})
	return sse.Patch(legend, "#legend")
}
