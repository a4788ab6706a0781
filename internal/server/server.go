package server

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-carto/internal/api"
	"github.com/joeblew999/plat-carto/internal/api/live"
	"github.com/joeblew999/plat-carto/internal/carto"
	"github.com/joeblew999/plat-carto/internal/logging"
	"github.com/joeblew999/plat-carto/internal/mapview"
	"github.com/joeblew999/plat-carto/internal/service"
	"github.com/joeblew999/plat-carto/internal/style"
	"github.com/joeblew999/plat-carto/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	Version string

	Style   style.Config
	Client  *carto.Client
	Layer   service.LayerConfig
	View    mapview.View
	Basemap mapview.Basemap

	// SessionIdle is how long a session without a live stream is kept.
	SessionIdle time.Duration
	// TemplatesDir, when set, serves templates from disk and re-reads them
	// on every page load.
	TemplatesDir string

	Logger *log.Logger
}

// DefaultSessionIdle is used when Config.SessionIdle is zero.
const DefaultSessionIdle = 5 * time.Minute

// Server is the map page HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	bus      *service.EventBus
	services *api.Services
	renderer *templates.Renderer
	devFS    fs.FS
	logger   *log.Logger
	stop     context.CancelFunc
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, carto.ErrMissingCredentials
	}
	if err := cfg.Style.Validate(); err != nil {
		return nil, fmt.Errorf("style config: %w", err)
	}
	if cfg.View == (mapview.View{}) {
		cfg.View = mapview.Madrid
	}
	if err := cfg.View.Validate(); err != nil {
		return nil, fmt.Errorf("map view: %w", err)
	}
	if cfg.Layer.ID == "" {
		cfg.Layer = service.DefaultLayer
	}
	if cfg.Basemap.URL == "" {
		cfg.Basemap = mapview.Voyager
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = DefaultSessionIdle
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	pub := cfg.Client.Public()
	logger.Info("carto account", "user", pub.Username, "key", pub.APIKey, "server", pub.ServerURL)

	var (
		renderer *templates.Renderer
		devFS    fs.FS
		err      error
	)
	if cfg.TemplatesDir != "" {
		devFS = os.DirFS(cfg.TemplatesDir)
		renderer, err = templates.NewFS(devFS)
		logger.Info("serving templates from disk", "dir", cfg.TemplatesDir)
	} else {
		renderer, err = templates.New()
	}
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-carto API", cfg.Version)
	humaConfig.Info.Description = "Derives CartoCSS layer styles from histogram widget buckets and pushes them to the map page."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)
	humaAPI.UseMiddleware(logging.Middleware(logger))

	bus := service.NewEventBus()
	services := &api.Services{
		Sessions: service.NewSessionStore(cfg.Style, cfg.Layer, bus, logger),
		Client:   cfg.Client,
		View:     cfg.View,
		Basemap:  cfg.Basemap,
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		services: services,
		renderer: renderer,
		devFS:    devFS,
		logger:   logger,
	}
	s.routes()

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	go services.Sessions.Reap(ctx, cfg.SessionIdle)
	return s, nil
}

// Close stops expiring idle sessions.
func (s *Server) Close() error {
	s.stop()
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Sessions returns the server's session store.
func (s *Server) Sessions() *service.SessionStore {
	return s.services.Sessions
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.Version, s.services.Sessions).RegisterRoutes(s.humaAPI)

	// Datastar SSE push channel
	live.NewHandler(s.services.Sessions, s.bus, s.renderer, s.logger).RegisterRoutes(s.humaAPI)

	// Page routes
	s.mux.HandleFunc("GET /{$}", s.handlePage)
}

// handlePage opens a session and renders the map page bound to it.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.devFS != nil {
		if err := s.renderer.Reload(s.devFS); err != nil {
			s.logger.Error("reloading templates", "err", err)
			http.Error(w, "failed to load templates", http.StatusInternalServerError)
			return
		}
	}

	sess := s.services.Sessions.Create()
	base := "/api/v1/sessions/" + sess.ID
	attr := s.services.Sessions.Config().Attribute

	data := templates.PageData{
		Title:      sess.Layer.Name + " by " + attr,
		SessionID:  sess.ID,
		Attribute:  attr,
		Layer:      sess.Layer,
		Client:     *s.config.Client,
		View:       s.config.View,
		Legend:     templates.LegendData{Attribute: attr},
		BasemapURL: s.config.Basemap.URL,
		Subdomains: s.config.Basemap.Subdomains,
		EventsURL:  "/api/v1/live/sessions/" + sess.ID + "/events",
		BucketsURL: base + "/buckets",
		ReadyURL:   base + "/map/ready",
		SessionURL: base,
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderToBuffer(&buf, "page", data); err != nil {
		s.logger.Error("rendering page", "session", sess.ID, "err", err)
		s.services.Sessions.Delete(sess.ID)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
	s.logger.Debug("page served", "session", sess.ID)
}
