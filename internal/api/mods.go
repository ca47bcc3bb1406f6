package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcwarden/mcwarden/internal/api/models"
	"github.com/mcwarden/mcwarden/internal/events"
)

// registerModRoutes registers the mod inventory endpoints.
func (s *Server) registerModRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-mods",
		Method:      http.MethodGet,
		Path:        "/api/mods",
		Summary:     "List Mods",
		Description: "Get the server's mod inventory, sorted by name. Served from cache unless refresh is set.",
		Tags:        []string{"mods"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Refresh bool `query:"refresh" doc:"Force a rescan of the mod directory"`
	}) (*models.ModListResponse, error) {
		return s.listMods(input.Refresh)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "rescan-mods",
		Method:      http.MethodPost,
		Path:        "/api/mods/rescan",
		Summary:     "Rescan Mods",
		Description: "Rescan the mod directory, bypassing the cache, and return the fresh inventory",
		Tags:        []string{"mods"},
		Errors:      []int{401, 500},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ModListResponse, error) {
		return s.listMods(true)
	})
}

func (s *Server) listMods(refresh bool) (*models.ModListResponse, error) {
	if s.options.Scanner == nil {
		return &models.ModListResponse{
			Body: models.ModListData{Mods: []models.ModData{}},
		}, nil
	}

	list, err := s.options.Scanner.List(refresh)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to scan mods", err)
	}

	if refresh && s.eventBus != nil {
		s.eventBus.Publish(events.ModsRescannedEvent{
			Count:     len(list),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}

	apiMods := make([]models.ModData, len(list))
	for i, m := range list {
		apiMods[i] = models.ModData{
			ID:      m.ID,
			Name:    m.Name,
			Version: m.Version,
			Loader:  m.Loader,
			File:    m.File,
		}
	}
	return &models.ModListResponse{
		Body: models.ModListData{
			Mods:  apiMods,
			Count: len(apiMods),
		},
	}, nil
}
