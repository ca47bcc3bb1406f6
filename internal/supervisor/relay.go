package supervisor

import (
	"bufio"
	"strings"

	"github.com/mcwarden/mcwarden/internal/metrics"
)

// relay drains the process's combined output stream line-by-line into the
// server log sink until the stream closes, then records the exit code and
// applies termination bookkeeping. It runs on its own goroutine for the
// lifetime of one process: end-of-stream is how the supervisor learns about
// process death that no command asked for.
func (s *Supervisor) relay(h *Handle) {
	scanner := bufio.NewScanner(h.output)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.serverLog.Info(line)
		metrics.RecordOutputLine()
	}

	readErr := scanner.Err()
	if readErr != nil {
		s.logger.Error("Error reading server output", "error", readErr)
		// The process may still be alive with its output gone, so the wait
		// below can block indefinitely. Mark the failure now; the handle is
		// retained so a later kill can reclaim the process.
		s.mu.Lock()
		if s.handle == h && !s.opActive {
			s.inError = true
			s.setLifecycle(LifecycleError)
			s.logger.Error("Server output relay failed, marking server errored")
		}
		s.mu.Unlock()
	}
	h.output.Close()

	// On a clean stream close the process has exited or is exiting, so this
	// wait is short. It is the only Wait call for this command.
	waitErr := h.cmd.Wait()
	code := exitCodeFromError(waitErr)
	h.recordExit(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Identity check: a fresh start may already track a new process, and a
	// stale relay must never corrupt its state.
	if s.handle != h {
		return
	}

	// An in-flight start/stop/kill owns the transition; it reads the exit
	// code from the handle itself.
	if s.opActive {
		return
	}

	s.lastExitCode = &code
	s.handle = nil

	switch {
	case readErr != nil:
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.logger.Error("Server output relay failed, marking server errored", "exit_code", code)
	case code != 0:
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.logger.Error("Server process exited unexpectedly", "exit_code", code)
	default:
		s.setLifecycle(LifecycleOffline)
		s.logger.Info("Server process exited normally")
	}
}
