// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/conditional"

	"github.com/joeblew999/plat-carto/internal/carto"
	"github.com/joeblew999/plat-carto/internal/humastar"
	"github.com/joeblew999/plat-carto/internal/mapview"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/style"
)

// Services holds the dependencies for API handlers.
type Services struct {
	Sessions *service.SessionStore
	Client   *carto.Client
	View     mapview.View
	Basemap  mapview.Basemap
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Session ID" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
}

type BucketsInput struct {
	IDInput
	RawBody []byte
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// StyleBody is a style document together with how it was derived.
type StyleBody struct {
	Phase     service.Phase       `json:"phase" enum:"default,computed" doc:"default until the widget reports bins"`
	Document  string              `json:"document" doc:"CartoCSS for the layer"`
	Legend    []style.LegendEntry `json:"legend" doc:"Color per bucket, in rule order"`
	Buckets   int                 `json:"buckets" doc:"Number of buckets the document was derived from"`
	Revision  uint64              `json:"revision" doc:"Incremented on every successful update"`
	ETag      string              `json:"etag" doc:"Entity tag of the document"`
	UpdatedAt time.Time           `json:"updatedAt" doc:"When the document was derived"`
}

func newStyleBody(s service.Snapshot) StyleBody {
	legend := s.Legend
	if legend == nil {
		legend = []style.LegendEntry{}
	}
	return StyleBody{
		Phase:     s.Phase,
		Document:  s.Document.String(),
		Legend:    legend,
		Buckets:   s.Buckets,
		Revision:  s.Revision,
		ETag:      s.ETag,
		UpdatedAt: s.UpdatedAt,
	}
}

// SessionBody summarizes one map page session.
type SessionBody struct {
	ID       string              `json:"id" doc:"Session ID"`
	Created  time.Time           `json:"created" doc:"Creation time"`
	Layer    service.LayerConfig `json:"layer" doc:"Layer mounted on the map"`
	Username string              `json:"username" doc:"Account the layer is read from"`
	MapReady bool                `json:"mapReady" doc:"Whether the page reported its map instance"`
	Map      *service.MapState   `json:"map,omitempty" doc:"Map state reported by the page"`
	Style    StyleBody           `json:"style" doc:"Current layer style"`
}

// Actions implements humastar.Actor.
func (b SessionBody) Actions() []humastar.Action {
	base := "/api/v1/sessions/" + b.ID
	actions := []humastar.Action{
		{Rel: "buckets", Href: base + "/buckets", Method: "POST", Title: "Report histogram bins"},
		{Rel: "style", Href: base + "/style", Method: "GET", Title: "Current layer style"},
		{Rel: "events", Href: "/api/v1/live/sessions/" + b.ID + "/events", Method: "GET", Title: "Live style updates"},
		{Rel: "delete", Href: base, Method: "DELETE", Title: "Close session"},
	}
	if !b.MapReady {
		actions = append(actions, humastar.Action{Rel: "ready", Href: base + "/map/ready", Method: "POST", Title: "Report map ready"})
	}
	return actions
}

func newSessionBody(sess *service.Session, username string) SessionBody {
	body := SessionBody{
		ID:       sess.ID,
		Created:  sess.Created,
		Layer:    sess.Layer,
		Username: username,
		Style:    newStyleBody(sess.Style.Current()),
	}
	if m, ok := sess.Map.Value(); ok {
		body.MapReady = true
		body.Map = &m
	}
	return body
}

// MapBody describes the initial viewport and basemap.
type MapBody struct {
	Lat           float64    `json:"lat" doc:"Center latitude" example:"40.42"`
	Lon           float64    `json:"lon" doc:"Center longitude" example:"-3.7"`
	Zoom          int        `json:"zoom" doc:"Initial zoom" example:"13"`
	Bound         [4]float64 `json:"bound" doc:"Center tile bound as [minLon, minLat, maxLon, maxLat]"`
	Tile          [3]uint32  `json:"tile" doc:"Center tile as [z, x, y]"`
	Basemap       string     `json:"basemap" doc:"Basemap URL template"`
	Subdomains    []string   `json:"subdomains" doc:"Basemap subdomains"`
	CenterTileURL string     `json:"centerTileUrl" doc:"Basemap URL of the center tile"`
	MapsAPI       string     `json:"mapsApi,omitempty" doc:"CARTO Maps API endpoint the layer is instantiated against"`
	SQLAPI        string     `json:"sqlApi,omitempty" doc:"CARTO SQL API endpoint the widget queries"`
}

// ReadyBody acknowledges a map ready report.
type ReadyBody struct {
	Map      service.MapState `json:"map" doc:"Map state the session is bound to"`
	Accepted bool             `json:"accepted" doc:"False if the session was already ready; the first report wins"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterStyle registers stateless style routes.
func (h *APIHandler) RegisterStyle(api huma.API) {
	huma.Get(api, "/api/v1/config", h.GetConfig, huma.OperationTags("style"))
	huma.Post(api, "/api/v1/style/preview", h.PreviewStyle, huma.OperationTags("style"))
}

// RegisterMap registers map view routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
}

// RegisterSessions registers session routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Post(api, "/api/v1/sessions", h.CreateSession, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}", h.GetSession, huma.OperationTags("sessions"))
	huma.Delete(api, "/api/v1/sessions/{id}", h.DeleteSession, huma.OperationTags("sessions"))
	huma.Get(api, "/api/v1/sessions/{id}/style", h.GetSessionStyle, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/map/ready", h.MapReady, huma.OperationTags("sessions"))
	huma.Post(api, "/api/v1/sessions/{id}/buckets", h.PostBuckets, huma.OperationTags("sessions"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetConfig(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body style.Config }, error) {
	return &struct{ Body style.Config }{Body: h.svc.Sessions.Config()}, nil
}

func (h *APIHandler) PreviewStyle(ctx context.Context, input *struct {
	RawBody []byte
}) (*struct{ Body StyleBody }, error) {
	data, err := style.ParseBucketData(input.RawBody)
	if err != nil {
		return nil, styleError(err)
	}
	doc, assigned, err := h.svc.Sessions.Config().Build(data.Bins)
	if err != nil {
		return nil, styleError(err)
	}
	return &struct{ Body StyleBody }{Body: StyleBody{
		Phase:     service.PhaseComputed,
		Document:  doc.String(),
		Legend:    style.Legend(assigned),
		Buckets:   len(data.Bins),
		ETag:      doc.ETag(),
		UpdatedAt: time.Now(),
	}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body MapBody }, error) {
	v := h.svc.View
	tile := v.Tile()
	b := v.Bound()
	body := MapBody{
		Lat:           v.Lat(),
		Lon:           v.Lon(),
		Zoom:          int(v.Zoom),
		Bound:         [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()},
		Tile:          [3]uint32{uint32(tile.Z), tile.X, tile.Y},
		Basemap:       h.svc.Basemap.URL,
		Subdomains:    h.svc.Basemap.Subdomains,
		CenterTileURL: h.svc.Basemap.TileURL(tile),
	}
	if h.svc.Client != nil {
		body.MapsAPI = h.svc.Client.MapsURL()
		body.SQLAPI = h.svc.Client.SQLURL()
	}
	return &struct{ Body MapBody }{Body: body}, nil
}

func (h *APIHandler) CreateSession(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body SessionBody }, error) {
	sess := h.svc.Sessions.Create()
	return &struct{ Body SessionBody }{Body: newSessionBody(sess, h.username())}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *IDInput) (*struct{ Body SessionBody }, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body SessionBody }{Body: newSessionBody(sess, h.username())}, nil
}

func (h *APIHandler) DeleteSession(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Sessions.Delete(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session closed"}}, nil
}

type StyleOutput struct {
	ETag         string `header:"ETag"`
	LastModified string `header:"Last-Modified"`
	Body         StyleBody
}

func newStyleOutput(s service.Snapshot) *StyleOutput {
	return &StyleOutput{
		ETag:         s.ETag,
		LastModified: lastModified(s).Format(http.TimeFormat),
		Body:         newStyleBody(s),
	}
}

// lastModified is UpdatedAt at the one-second precision of HTTP dates.
func lastModified(s service.Snapshot) time.Time {
	return s.UpdatedAt.UTC().Truncate(time.Second)
}

func (h *APIHandler) GetSessionStyle(ctx context.Context, input *struct {
	IDInput
	conditional.Params
}) (*StyleOutput, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	snap := sess.Style.Current()
	if input.HasConditionalParams() {
		if err := input.PreconditionFailed(strings.Trim(snap.ETag, `"`), lastModified(snap)); err != nil {
			return nil, err
		}
	}
	return newStyleOutput(snap), nil
}

func (h *APIHandler) MapReady(ctx context.Context, input *struct {
	IDInput
	Body service.MapState
}) (*struct{ Body ReadyBody }, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	if _, err := mapview.FromState(input.Body.Lat, input.Body.Lon, input.Body.Zoom); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	accepted := sess.Map.Signal(input.Body)
	current, _ := sess.Map.Value()
	return &struct{ Body ReadyBody }{Body: ReadyBody{Map: current, Accepted: accepted}}, nil
}

func (h *APIHandler) PostBuckets(ctx context.Context, input *BucketsInput) (*StyleOutput, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Style.OnBucketJSON(input.RawBody)
	if err != nil {
		return nil, styleError(err)
	}
	return newStyleOutput(snap), nil
}

// helpers

func (h *APIHandler) session(id string) (*service.Session, error) {
	sess, err := h.svc.Sessions.Get(id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return sess, nil
}

func (h *APIHandler) username() string {
	if h.svc.Client == nil {
		return ""
	}
	return h.svc.Client.Username
}

// styleError maps derivation errors to a 422 naming the offending field.
func styleError(err error) error {
	var ie *style.InputError
	if errors.As(err, &ie) {
		loc := "body"
		if ie.Field != "" {
			loc += "." + ie.Field
		}
		return huma.Error422UnprocessableEntity("Invalid bucket data", &huma.ErrorDetail{
			Location: loc,
			Message:  ie.Reason,
		})
	}
	return huma.Error500InternalServerError("Style derivation failed", err)
}
