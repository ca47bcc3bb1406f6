package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/mcwarden/mcwarden/internal/api/models"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/logging"
)

// registerLogRoutes registers log retrieval and streaming endpoints.
func (s *Server) registerLogRoutes() {
	// Recent server output from the ring buffer
	huma.Register(s.api, huma.Operation{
		OperationID: "server-logs",
		Method:      http.MethodGet,
		Path:        "/api/server/logs",
		Summary:     "Server Logs",
		Description: "Get recent server console output. Lines come from the in-memory ring buffer, oldest first.",
		Tags:        []string{"logs"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Lines  int    `query:"lines" default:"100" minimum:"1" maximum:"1000" doc:"Maximum number of lines to return"`
		Module string `query:"module" default:"server" doc:"Log module to read, e.g. server or supervisor"`
	}) (*models.LogsResponse, error) {
		buffer := logging.GetBuffer()
		var lines []models.LogLine
		if buffer != nil {
			for _, entry := range buffer.TailModule(input.Module, input.Lines) {
				lines = append(lines, models.LogLine{
					Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
					Level:     entry.Level,
					Module:    entry.Module,
					Message:   entry.Message,
				})
			}
		}
		return &models.LogsResponse{
			Body: models.LogsData{
				Lines: lines,
				Count: len(lines),
			},
		}, nil
	})

	// Register SSE endpoint for log streaming
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// First, send all historical logs from the ring buffer
		buffer := logging.GetBuffer()
		if buffer != nil {
			for _, entry := range buffer.ReadAll() {
				event := events.LogEntryEvent{
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				}
				if err := send.Data(event); err != nil {
					return
				}
			}
		}

		// Create event channel for this connection
		eventCh := make(chan any, 100) // Larger buffer for logs

		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		// Stream new log entries as they arrive
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
