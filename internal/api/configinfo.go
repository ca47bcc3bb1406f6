package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcwarden/mcwarden/internal/api/models"
)

// registerConfigRoutes registers the read-only configuration summary.
func (s *Server) registerConfigRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-config",
		Method:      http.MethodGet,
		Path:        "/api/config",
		Summary:     "Configuration Summary",
		Description: "Get the daemon's effective configuration. Secrets are never included.",
		Tags:        []string{"system"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ConfigSummaryResponse, error) {
		settings := s.options.Settings
		aiEnabled := s.options.Responder != nil && s.options.Responder.Enabled()
		body := models.ConfigSummaryData{
			ServerDirectory:     settings.Server.Directory,
			StartScript:         settings.Server.StartScript,
			StopCommand:         settings.Server.StopCommand,
			StopTimeoutSeconds:  settings.Server.StopTimeoutSeconds,
			Language:            settings.Presence.Language,
			PollIntervalSeconds: settings.Presence.PollIntervalSeconds,
			AIEnabled:           aiEnabled,
			ModsDir:             settings.ModsDir(),
		}
		if aiEnabled {
			body.AIPersonality = s.options.Responder.Personality()
		}
		return &models.ConfigSummaryResponse{Body: body}, nil
	})
}
