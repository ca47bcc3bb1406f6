package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcwarden/mcwarden/internal/ai"
	"github.com/mcwarden/mcwarden/internal/api/models"
)

// registerChatRoutes registers the AI chat endpoints.
func (s *Server) registerChatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/api/chat",
		Summary:     "Chat",
		Description: "Ask the server's assistant a question. A fallback line is returned when the model is unreachable.",
		Tags:        []string{"chat"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.ChatRequest) (*models.ChatResponse, error) {
		if s.options.Responder == nil || !s.options.Responder.Enabled() {
			return nil, huma.Error503ServiceUnavailable("Chat responder is not configured")
		}

		reply, err := s.options.Responder.Respond(ctx, input.Body.Author, input.Body.Message)
		if err != nil {
			if errors.Is(err, ai.ErrDisabled) {
				return nil, huma.Error503ServiceUnavailable("Chat responder is not configured")
			}
			// Model failure: the reply is a fallback line, still usable
			s.logger.Warn("Chat model call failed", "error", err)
			return &models.ChatResponse{
				Body: models.ChatData{Reply: reply, Fallback: true},
			}, nil
		}

		return &models.ChatResponse{
			Body: models.ChatData{Reply: reply},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-personality",
		Method:      http.MethodGet,
		Path:        "/api/ai/personality",
		Summary:     "Get Personality",
		Description: "Get the active responder personality and the available ones",
		Tags:        []string{"chat"},
		Errors:      []int{401, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.PersonalityResponse, error) {
		if s.options.Responder == nil {
			return nil, huma.Error503ServiceUnavailable("Chat responder is not configured")
		}
		return &models.PersonalityResponse{
			Body: models.PersonalityData{
				Active:    s.options.Responder.Personality(),
				Available: s.registryNames(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-personality",
		Method:      http.MethodPut,
		Path:        "/api/ai/personality",
		Summary:     "Set Personality",
		Description: "Switch the responder to a different personality",
		Tags:        []string{"chat"},
		Errors:      []int{401, 404, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.PersonalityRequest) (*models.PersonalityResponse, error) {
		if s.options.Responder == nil {
			return nil, huma.Error503ServiceUnavailable("Chat responder is not configured")
		}

		name := input.Body.Name
		if !s.personalityExists(name) {
			return nil, huma.Error404NotFound("Unknown personality: " + name)
		}

		s.options.Responder.SetPersonality(name)
		s.logger.Info("Responder personality changed", "personality", name)
		return &models.PersonalityResponse{
			Body: models.PersonalityData{
				Active:    name,
				Available: s.registryNames(),
			},
		}, nil
	})
}

func (s *Server) registryNames() []string {
	if s.options.Registry == nil {
		return nil
	}
	return s.options.Registry.Names()
}

func (s *Server) personalityExists(name string) bool {
	if s.options.Registry == nil {
		return false
	}
	for _, n := range s.options.Registry.Names() {
		if n == name {
			return true
		}
	}
	return false
}
