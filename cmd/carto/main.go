package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-carto/internal/carto"
	"github.com/joeblew999/plat-carto/internal/logging"
	"github.com/joeblew999/plat-carto/internal/mapview"
	"github.com/joeblew999/plat-carto/internal/server"
	"github.com/joeblew999/plat-carto/internal/style"
)

const version = "0.1.0"

// Options defines all CLI flags and env vars for the carto server.
// Flags: --host, --port, --style-config, --carto-user, --carto-api-key,
// --carto-server, --session-idle, --templates-dir, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_STYLE_CONFIG, SERVICE_CARTO_USER,
// SERVICE_CARTO_API_KEY, SERVICE_CARTO_SERVER, SERVICE_SESSION_IDLE,
// SERVICE_TEMPLATES_DIR, SERVICE_LOG_LEVEL
type Options struct {
	Host         string `doc:"Host to bind to" default:"0.0.0.0"`
	Port         int    `doc:"Port to listen on" short:"p" default:"8086"`
	StyleConfig  string `doc:"YAML file with palette, attribute and base marker properties"`
	CartoUser    string `doc:"CARTO account the layer is read from" default:"ramirocartodb"`
	CartoAPIKey  string `doc:"CARTO API key used by the page" default:"default_public"`
	CartoServer  string `doc:"CARTO server URL template" default:"https://{username}.carto.com"`
	SessionIdle  int    `doc:"Seconds a session without a connected page is kept" default:"300"`
	TemplatesDir string `doc:"Serve page templates from this directory, re-read on every page load"`
	LogLevel     string `doc:"Log level (debug, info, warn, error)" default:"info"`
}

func newLogger(opts *Options) (*log.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, level), nil
}

func loadStyle(opts *Options) (style.Config, error) {
	if opts.StyleConfig == "" {
		return style.DefaultConfig(), nil
	}
	return style.LoadConfig(opts.StyleConfig)
}

func newServer(opts *Options, logger *log.Logger) (*server.Server, error) {
	cfg, err := loadStyle(opts)
	if err != nil {
		return nil, err
	}
	client, err := carto.NewClient(opts.CartoUser, opts.CartoAPIKey, opts.CartoServer)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    fmt.Sprintf("%d", opts.Port),
		Version: version,
		Style:   cfg,
		Client:  client,
		View:    mapview.Madrid,
		Basemap: mapview.Voyager,
		Logger:  logger,

		SessionIdle:  time.Duration(opts.SessionIdle) * time.Second,
		TemplatesDir: opts.TemplatesDir,
	})
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger, err := newLogger(opts)
		if err != nil {
			fatal("Invalid log level", err)
		}
		srv, err := newServer(opts, logger)
		if err != nil {
			fatal("Error creating server", err)
		}

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-carto server starting...\n")
			fmt.Printf("  Page:    %s/\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			logger.Info("listening", "addr", addr, "carto_user", opts.CartoUser)
			if err := http.ListenAndServe(addr, srv); err != nil {
				logger.Fatal("server error", "err", err)
			}
		})
	})

	cli.Root().Use = "carto"
	cli.Root().Short = "Map page whose layer style follows its histogram widget"
	cli.Root().Version = version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, logging.New(io.Discard, log.ErrorLevel))
			if err != nil {
				fatal("Error creating server", err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal("Error marshaling spec", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// style subcommand: derive a document from widget bins without a server
	styleCmd := &cobra.Command{
		Use:   "style [bins.json]",
		Short: "Derive the layer CartoCSS from histogram bins (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger, err := newLogger(opts)
			if err != nil {
				fatal("Invalid log level", err)
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

			if err := runStyle(cmd.Context(), opts, args, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				logging.FromContext(cmd.Context()).Error("deriving style", "err", err)
				os.Exit(1)
			}
		}),
	}
	cli.Root().AddCommand(styleCmd)

	cli.Run()
}
