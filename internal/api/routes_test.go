package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/plat-carto/internal/carto"
	"github.com/joeblew999/plat-carto/internal/mapview"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/style"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	client, err := carto.NewClient("ramirocartodb", "default_public", "")
	if err != nil {
		t.Fatal(err)
	}
	logger := log.NewWithOptions(&bytes.Buffer{}, log.Options{Level: log.ErrorLevel})
	svc := &Services{
		Sessions: service.NewSessionStore(style.DefaultConfig(), service.DefaultLayer, service.NewEventBus(), logger),
		Client:   client,
		View:     mapview.Madrid,
		Basemap:  mapview.Voyager,
	}

	cfg := huma.DefaultConfig("plat-carto test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler("test", svc.Sessions).RegisterRoutes(api)
	return api, svc
}

func decode[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", body.String(), err)
	}
	return v
}

func createSession(t *testing.T, api humatest.TestAPI) SessionBody {
	t.Helper()
	resp := api.Post("/api/v1/sessions")
	if resp.Code != http.StatusOK {
		t.Fatalf("create session: %d %s", resp.Code, resp.Body.String())
	}
	return decode[SessionBody](t, resp.Body)
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if body := decode[HealthBody](t, resp.Body); body.Status != "ok" {
		t.Errorf("Status = %q", body.Status)
	}
	if links := strings.Join(resp.Header().Values("Link"), ","); !strings.Contains(links, `rel="sessions"`) {
		t.Errorf("Link headers = %s", links)
	}
}

func TestInfo(t *testing.T) {
	api, svc := newTestAPI(t)
	svc.Sessions.Create()
	body := decode[InfoBody](t, api.Get("/api/v1/info").Body)
	if body.Name != "plat-carto" || body.Sessions != 1 || body.Attribute != "price" || body.Layer != "airbnb" {
		t.Errorf("info = %+v", body)
	}
}

func TestConfig(t *testing.T) {
	api, _ := newTestAPI(t)
	body := decode[style.Config](t, api.Get("/api/v1/config").Body)
	if body.Attribute != "price" || len(body.Palette) != 7 || body.Overflow != style.OverflowReject {
		t.Errorf("config = %+v", body)
	}
}

func TestMap(t *testing.T) {
	api, _ := newTestAPI(t)
	body := decode[MapBody](t, api.Get("/api/v1/map").Body)
	if body.Lat != 40.42 || body.Lon != -3.7 || body.Zoom != 13 {
		t.Errorf("view = %+v", body)
	}
	if body.Bound[0] > body.Lon || body.Bound[2] < body.Lon || body.Bound[1] > body.Lat || body.Bound[3] < body.Lat {
		t.Errorf("center outside bound %v", body.Bound)
	}
	if body.Tile[0] != 13 || !strings.HasSuffix(body.CenterTileURL, ".png") || strings.Contains(body.CenterTileURL, "{") {
		t.Errorf("tile = %v url = %s", body.Tile, body.CenterTileURL)
	}
	if body.MapsAPI != "https://ramirocartodb.carto.com/api/v1/map" {
		t.Errorf("MapsAPI = %s", body.MapsAPI)
	}
}

func TestPreviewStyle(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Post("/api/v1/style/preview", strings.NewReader(`{"bins":[{"start":0},{"start":50},{"start":100}]}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d %s", resp.Code, resp.Body.String())
	}
	body := decode[StyleBody](t, resp.Body)
	doc := body.Document
	i0 := strings.Index(doc, "[price >= 0] {\n    marker-fill: #fcde9c;")
	i1 := strings.Index(doc, "[price >= 50] {\n    marker-fill: #faa476;")
	i2 := strings.Index(doc, "[price >= 100] {\n    marker-fill: #f0746e;")
	if i0 < 0 || i1 < i0 || i2 < i1 {
		t.Errorf("rules missing or out of order:\n%s", doc)
	}
	if !strings.HasPrefix(doc, "#layer {\n  marker-width: 10;") {
		t.Errorf("base block missing:\n%s", doc)
	}
	if len(body.Legend) != 3 || body.Buckets != 3 {
		t.Errorf("legend = %+v buckets = %d", body.Legend, body.Buckets)
	}
}

func TestPreviewStyleInvalid(t *testing.T) {
	api, _ := newTestAPI(t)
	tests := []struct {
		name string
		body string
		loc  string
	}{
		{"missing bins", `{}`, "body.bins"},
		{"string start", `{"bins":[{"start":0},{"start":"x"}]}`, "body.bins[1].start"},
		{"too many", `{"bins":[{"start":0},{"start":1},{"start":2},{"start":3},{"start":4},{"start":5},{"start":6},{"start":7}]}`, "body.bins"},
		{"malformed", `{"bins":`, "body"},
		{"number bin", `{"bins":[{"start":0},5]}`, "body.bins[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Post("/api/v1/style/preview", strings.NewReader(tt.body))
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", resp.Code, resp.Body.String())
			}
			model := decode[huma.ErrorModel](t, resp.Body)
			if len(model.Errors) != 1 || model.Errors[0].Location != tt.loc {
				t.Errorf("errors = %+v, want location %s", model.Errors, tt.loc)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	api, svc := newTestAPI(t)

	created := createSession(t, api)
	if created.ID == "" || created.Username != "ramirocartodb" || created.MapReady {
		t.Fatalf("created = %+v", created)
	}
	if created.Style.Phase != service.PhaseDefault || created.Style.Document != service.DefaultLayer.DefaultStyle {
		t.Errorf("initial style = %+v", created.Style)
	}
	base := "/api/v1/sessions/" + created.ID

	// Map ready
	resp := api.Post(base+"/map/ready", map[string]any{"lat": 40.42, "lon": -3.7, "zoom": 13})
	if resp.Code != http.StatusOK {
		t.Fatalf("ready: %d %s", resp.Code, resp.Body.String())
	}
	if body := decode[ReadyBody](t, resp.Body); !body.Accepted || body.Map.Zoom != 13 {
		t.Errorf("ready = %+v", body)
	}
	resp = api.Post(base+"/map/ready", map[string]any{"lat": 0, "lon": 0, "zoom": 2})
	if body := decode[ReadyBody](t, resp.Body); body.Accepted || body.Map.Zoom != 13 {
		t.Errorf("second ready = %+v, want first report kept", body)
	}

	// Buckets
	resp = api.Post(base+"/buckets", strings.NewReader(`{"bins":[{"start":0,"end":50},{"start":50,"end":90}]}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("buckets: %d %s", resp.Code, resp.Body.String())
	}
	styled := decode[StyleBody](t, resp.Body)
	if styled.Phase != service.PhaseComputed || styled.Revision != 1 || styled.Buckets != 2 {
		t.Errorf("style = %+v", styled)
	}
	if resp.Header().Get("ETag") != styled.ETag {
		t.Errorf("ETag header = %s, body = %s", resp.Header().Get("ETag"), styled.ETag)
	}

	// Invalid buckets leave the style untouched
	resp = api.Post(base+"/buckets", strings.NewReader(`{"bins":[{"start":null}]}`))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid buckets status = %d", resp.Code)
	}

	// Style and conditional get
	resp = api.Get(base + "/style")
	if resp.Code != http.StatusOK {
		t.Fatalf("style: %d", resp.Code)
	}
	current := decode[StyleBody](t, resp.Body)
	if current.Document != styled.Document || current.Revision != 1 {
		t.Errorf("current style = %+v", current)
	}
	resp = api.Get(base+"/style", "If-None-Match: "+styled.ETag)
	if resp.Code != http.StatusNotModified {
		t.Errorf("conditional get status = %d, want 304", resp.Code)
	}
	modified := api.Get(base + "/style").Header().Get("Last-Modified")
	if _, err := http.ParseTime(modified); err != nil {
		t.Fatalf("Last-Modified = %q: %v", modified, err)
	}
	resp = api.Get(base+"/style", "If-Modified-Since: "+modified)
	if resp.Code != http.StatusNotModified {
		t.Errorf("If-Modified-Since status = %d, want 304", resp.Code)
	}
	resp = api.Get(base+"/style", "If-Modified-Since: Mon, 02 Jan 2006 15:04:05 GMT")
	if resp.Code != http.StatusOK {
		t.Errorf("stale If-Modified-Since status = %d, want 200", resp.Code)
	}

	// Session summary
	resp = api.Get(base)
	summary := decode[SessionBody](t, resp.Body)
	if !summary.MapReady || summary.Map == nil || summary.Style.Revision != 1 {
		t.Errorf("summary = %+v", summary)
	}
	links := strings.Join(resp.Header().Values("Link"), ",")
	if !strings.Contains(links, `rel="buckets"; method="POST"`) || strings.Contains(links, `rel="ready"`) {
		t.Errorf("Link headers = %s", links)
	}

	// Delete
	if resp := api.Delete(base); resp.Code != http.StatusOK {
		t.Errorf("delete status = %d", resp.Code)
	}
	if svc.Sessions.Len() != 0 {
		t.Errorf("sessions = %d after delete", svc.Sessions.Len())
	}
	for _, path := range []string{base, base + "/style"} {
		if resp := api.Get(path); resp.Code != http.StatusNotFound {
			t.Errorf("GET %s after delete = %d, want 404", path, resp.Code)
		}
	}
}

func TestMapReadyInvalid(t *testing.T) {
	api, _ := newTestAPI(t)
	created := createSession(t, api)

	resp := api.Post("/api/v1/sessions/"+created.ID+"/map/ready", map[string]any{"lat": 89.9, "lon": 0, "zoom": 3})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.Code)
	}
	resp = api.Post("/api/v1/sessions/nope/map/ready", map[string]any{"lat": 0, "lon": 0, "zoom": 3})
	if resp.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", resp.Code)
	}
}
