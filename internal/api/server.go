package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/mcwarden/mcwarden/internal/ai"
	"github.com/mcwarden/mcwarden/internal/api/models"
	"github.com/mcwarden/mcwarden/internal/config"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/mods"
	"github.com/mcwarden/mcwarden/internal/presence"
	"github.com/mcwarden/mcwarden/internal/supervisor"
	"github.com/mcwarden/mcwarden/internal/version"
)

// ServerController is the lifecycle surface the API drives. Satisfied by
// *supervisor.Supervisor.
type ServerController interface {
	Start() error
	Stop() (int, error)
	Kill() (int, error)
	Status() supervisor.Status
}

// Options carries the collaborators and settings the API server needs.
type Options struct {
	AuthUsername string
	AuthPassword string

	Controller  ServerController
	Broadcaster presence.Broadcaster
	Scanner     *mods.Scanner
	Responder   *ai.Responder
	Registry    *ai.Registry
	Settings    config.Settings
	EventBus    *events.Bus

	PrometheusHandler http.Handler
}

// Server is the Huma v2 API server fronting the daemon.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server with Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	apiConfig := huma.DefaultConfig("mcwarden API", version.String())
	apiConfig.Info.Description = "Game server supervision API: lifecycle control, log streaming, presence and chat"
	// Empty servers list makes OpenAPI use relative paths, working with any host
	apiConfig.Servers = []*huma.Server{}

	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	humaAPI := humago.New(mux, apiConfig)

	server := &Server{
		api:      humaAPI,
		mux:      mux,
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	humaAPI.UseMiddleware(NewCORSMiddleware(corsConfig))
	humaAPI.UseMiddleware(HTTPLoggingMiddleware)

	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		humaAPI.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Prometheus metrics are served raw, outside the OpenAPI surface
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// basicAuthMiddleware creates middleware for HTTP basic authentication.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Skip auth for operations without security requirements
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		var credentials string

		if authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				s.unauthorized(ctx, "Invalid authentication type", nil)
				return
			}
			decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
			if err != nil {
				s.unauthorized(ctx, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		} else {
			// SSE clients cannot set headers, allow base64 creds in a query param
			if queryAuth := ctx.Query("auth"); queryAuth != "" {
				decoded, err := base64.StdEncoding.DecodeString(queryAuth)
				if err != nil {
					s.unauthorized(ctx, "Invalid credentials format", err)
					return
				}
				credentials = string(decoded)
			}
		}

		if credentials == "" {
			s.unauthorized(ctx, "Authentication required", nil)
			return
		}

		parts := strings.SplitN(credentials, ":", 2)
		if len(parts) != 2 {
			s.unauthorized(ctx, "Invalid credentials format", nil)
			return
		}

		if parts[0] != username || parts[1] != password {
			s.unauthorized(ctx, "Invalid credentials", nil)
			return
		}

		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, message string, err error) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="mcwarden API"`)
	if err != nil {
		huma.WriteErr(s.api, ctx, http.StatusUnauthorized, message, err)
		return
	}
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, message)
}

// GetMux returns the underlying HTTP ServeMux for additional setup.
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves HTTP on addr and blocks until the server closes.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting mcwarden API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open connections; SSE
// clients would otherwise hold a graceful shutdown forever.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints.
func (s *Server) registerRoutes() {
	// Health check endpoint - no auth required
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	// Version endpoint - no auth required
	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerServerRoutes()
	s.registerConfigRoutes()
	s.registerModRoutes()
	s.registerChatRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}

// withAuth returns security requirement for basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
