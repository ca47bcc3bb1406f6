package supervisor

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for precondition failures. Callers discriminate with
// errors.Is.
var (
	// ErrAlreadyRunning is returned by Start when a process already exists.
	ErrAlreadyRunning = errors.New("server is already running")

	// ErrNotRunning is returned by Stop when the server is not online and by
	// Kill when no process handle exists.
	ErrNotRunning = errors.New("server is not running")

	// ErrOperationInProgress is returned when a start/stop/kill is invoked
	// while another operation has not yet reached a terminal outcome.
	// Concurrent operations are rejected, never queued.
	ErrOperationInProgress = errors.New("another operation is in progress")
)

// LaunchNotFoundError reports a missing launch script. This is a
// configuration error: it is surfaced verbatim and never retried.
type LaunchNotFoundError struct {
	Path string
}

func (e *LaunchNotFoundError) Error() string {
	return fmt.Sprintf("launch script not found: %s", e.Path)
}

// StartupFailedError reports a process that exited within the startup grace
// period.
type StartupFailedError struct {
	ExitCode int
}

func (e *StartupFailedError) Error() string {
	return fmt.Sprintf("server process died during startup with exit code %d", e.ExitCode)
}

// SignalSendError reports a failed write of the graceful-shutdown command to
// the process's stdin (pipe closed, process already gone).
type SignalSendError struct {
	Err error
}

func (e *SignalSendError) Error() string {
	return fmt.Sprintf("failed to send stop command: %v", e.Err)
}

func (e *SignalSendError) Unwrap() error {
	return e.Err
}

// ShutdownTimeoutError reports a graceful stop that exceeded the configured
// timeout. The process is left running; the operator must issue a kill.
type ShutdownTimeoutError struct {
	Timeout time.Duration
}

func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("server did not stop within %s", e.Timeout)
}
