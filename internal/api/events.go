package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/mcwarden/mcwarden/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for lifecycle changes, presence updates and mod rescans",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"server-state-changed": events.ServerStateChangedEvent{},
		"presence-updated":     events.PresenceUpdatedEvent{},
		"mods-rescanned":       events.ModsRescannedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.ServerStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PresenceUpdatedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ModsRescannedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Send the current state as connection confirmation so clients never
		// start from nothing
		st := s.options.Controller.Status()
		if err := send.Data(events.ServerStateChangedEvent{
			Lifecycle:    st.Lifecycle.String(),
			PID:          st.PID,
			LastExitCode: st.LastExitCode,
			InError:      st.InError,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
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
