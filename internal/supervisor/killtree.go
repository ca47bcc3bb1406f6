package supervisor

import (
	"errors"
	"log/slog"
	"syscall"
	"time"
)

// killProcessTree sends SIGKILL to the process group rooted at pid. The
// server is spawned with Setpgid, so launcher scripts and the real server
// process they fork are reclaimed together. The call is bounded by timeout;
// a timeout is logged but does not fail the kill operation.
func killProcessTree(pid int, timeout time.Duration, logger *slog.Logger) {
	result := make(chan error, 1)
	go func() {
		result <- syscall.Kill(-pid, syscall.SIGKILL)
	}()

	select {
	case err := <-result:
		switch {
		case err == nil:
			logger.Info("Killed process group", "pid", pid)
		case errors.Is(err, syscall.ESRCH):
			// Group already gone
			logger.Debug("Process group already exited", "pid", pid)
		default:
			logger.Error("Failed to kill process group", "pid", pid, "error", err)
		}
	case <-time.After(timeout):
		logger.Warn("Process group kill timed out", "pid", pid, "timeout", timeout)
	}
}
