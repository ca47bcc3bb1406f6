package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mcwarden/mcwarden/internal/api/models"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/presence"
	"github.com/mcwarden/mcwarden/internal/supervisor"
)

// diagnosticLines is how many recent server output lines are attached to a
// startup-failure response.
const diagnosticLines = 15

// registerServerRoutes registers the lifecycle control endpoints.
func (s *Server) registerServerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "server-status",
		Method:      http.MethodGet,
		Path:        "/api/server/status",
		Summary:     "Server Status",
		Description: "Get the supervised server's lifecycle state. Never blocks on process operations.",
		Tags:        []string{"server"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.ServerStatusResponse, error) {
		st := s.options.Controller.Status()
		body := models.ServerStatusData{
			Lifecycle:    st.Lifecycle.String(),
			PID:          st.PID,
			LastExitCode: st.LastExitCode,
			InError:      st.InError,
		}
		if s.options.Broadcaster != nil {
			body.Presence = s.options.Broadcaster.Current()
		}
		return &models.ServerStatusResponse{Body: body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "server-start",
		Method:      http.MethodPost,
		Path:        "/api/server/start",
		Summary:     "Start Server",
		Description: "Launch the server process and confirm liveness after the startup grace period.",
		Tags:        []string{"server"},
		Errors:      []int{401, 404, 409, 502},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.OperationResponse, error) {
		s.pushPresence(presence.KeywordStarting)

		err := s.options.Controller.Start()
		s.publishStateChange()
		if err != nil {
			s.pushCurrentPresence()
			return nil, s.mapOperationError("start", err)
		}

		s.pushPresence(presence.KeywordOnline)
		st := s.options.Controller.Status()
		return &models.OperationResponse{
			Body: models.OperationData{
				Operation: "start",
				Lifecycle: st.Lifecycle.String(),
				Message:   "Server started",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "server-stop",
		Method:      http.MethodPost,
		Path:        "/api/server/stop",
		Summary:     "Stop Server",
		Description: "Gracefully stop the server via its console command. Waits up to the configured timeout.",
		Tags:        []string{"server"},
		Errors:      []int{401, 409, 502, 504},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.OperationResponse, error) {
		s.pushPresence(presence.KeywordStopping)

		code, err := s.options.Controller.Stop()
		s.publishStateChange()
		if err != nil {
			s.pushCurrentPresence()
			return nil, s.mapOperationError("stop", err)
		}

		st := s.options.Controller.Status()
		s.pushCurrentPresence()
		message := "Server stopped"
		if code != 0 {
			message = fmt.Sprintf("Server stopped with exit code %d", code)
		}
		return &models.OperationResponse{
			Body: models.OperationData{
				Operation: "stop",
				Lifecycle: st.Lifecycle.String(),
				ExitCode:  &code,
				Message:   message,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "server-kill",
		Method:      http.MethodPost,
		Path:        "/api/server/kill",
		Summary:     "Kill Server",
		Description: "Forcibly terminate the server process tree. Succeeds whenever a process existed.",
		Tags:        []string{"server"},
		Errors:      []int{401, 404, 409},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct{}) (*models.OperationResponse, error) {
		code, err := s.options.Controller.Kill()
		s.publishStateChange()
		if err != nil {
			return nil, s.mapOperationError("kill", err)
		}

		s.pushPresence(presence.KeywordOffline)
		st := s.options.Controller.Status()
		message := "Server killed"
		if code == supervisor.ExitCodeUnknown {
			message = "Server killed, exit code not observable"
		}
		return &models.OperationResponse{
			Body: models.OperationData{
				Operation: "kill",
				Lifecycle: st.Lifecycle.String(),
				ExitCode:  &code,
				Message:   message,
			},
		}, nil
	})
}

// mapOperationError maps supervisor errors to HTTP errors.
func (s *Server) mapOperationError(operation string, err error) error {
	var launchErr *supervisor.LaunchNotFoundError
	var startupErr *supervisor.StartupFailedError
	var signalErr *supervisor.SignalSendError
	var timeoutErr *supervisor.ShutdownTimeoutError

	switch {
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		return huma.Error409Conflict("Server is already running", err)
	case errors.Is(err, supervisor.ErrNotRunning):
		return huma.Error404NotFound("No server process to "+operation, err)
	case errors.Is(err, supervisor.ErrOperationInProgress):
		return huma.Error409Conflict("Another operation is in progress", err)
	case errors.As(err, &launchErr):
		return huma.Error404NotFound("Launch script not found: "+launchErr.Path, err)
	case errors.As(err, &startupErr):
		details := []error{err}
		for _, line := range recentServerOutput() {
			details = append(details, &huma.ErrorDetail{
				Message:  line,
				Location: "server output",
			})
		}
		return huma.Error502BadGateway(
			fmt.Sprintf("Server died during startup with exit code %d", startupErr.ExitCode), details...)
	case errors.As(err, &signalErr):
		return huma.Error502BadGateway("Failed to send stop command to server", err)
	case errors.As(err, &timeoutErr):
		return huma.Error504GatewayTimeout(
			fmt.Sprintf("Server did not stop within %s, kill to reclaim it", timeoutErr.Timeout), err)
	default:
		return huma.Error500InternalServerError("Operation failed", err)
	}
}

// recentServerOutput returns the tail of relayed server output for
// diagnostics.
func recentServerOutput() []string {
	buffer := logging.GetBuffer()
	if buffer == nil {
		return nil
	}
	entries := buffer.TailModule("server", diagnosticLines)
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Message)
	}
	return lines
}

// pushPresence broadcasts a keyword, ignoring the advisory error.
func (s *Server) pushPresence(keyword string) {
	if s.options.Broadcaster == nil {
		return
	}
	if err := s.options.Broadcaster.Push(keyword); err != nil {
		s.logger.Warn("Presence broadcast failed", "keyword", keyword, "error", err)
	}
}

// pushCurrentPresence rebroadcasts whatever the controller state maps to,
// used after failed or ambiguous operations.
func (s *Server) pushCurrentPresence() {
	s.pushPresence(presence.KeywordFor(s.options.Controller.Status()))
}

// publishStateChange emits the post-operation supervisor state on the bus.
func (s *Server) publishStateChange() {
	if s.eventBus == nil {
		return
	}
	st := s.options.Controller.Status()
	s.eventBus.Publish(events.ServerStateChangedEvent{
		Lifecycle:    st.Lifecycle.String(),
		PID:          st.PID,
		LastExitCode: st.LastExitCode,
		InError:      st.InError,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}
