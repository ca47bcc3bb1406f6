package supervisor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/metrics"
)

// ExitCodeUnknown is recorded after a kill when no real exit code could be
// observed. Kill succeeds regardless: its contract is "no longer running",
// not clean accounting.
const ExitCodeUnknown = -1

// Config holds the supervisor's launch and timing parameters. All values come
// from the daemon configuration; the supervisor owns none of them.
type Config struct {
	// Directory is the server working directory.
	Directory string

	// StartScript is the launch script, absolute or relative to Directory.
	StartScript string

	// StopCommand is the console command written to the server's stdin for a
	// graceful shutdown.
	StopCommand string

	// StartupGrace is how long Start waits before re-checking liveness.
	StartupGrace time.Duration

	// StopTimeout bounds the graceful-stop wait.
	StopTimeout time.Duration

	// KillTimeout bounds the process-tree kill call.
	KillTimeout time.Duration

	// KillRecheck is how long Kill waits after the tree kill before
	// re-sampling liveness and escalating to a direct signal.
	KillRecheck time.Duration
}

func (c Config) withDefaults() Config {
	if c.StopCommand == "" {
		c.StopCommand = "stop"
	}
	if c.StartupGrace <= 0 {
		c.StartupGrace = 3 * time.Second
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 60 * time.Second
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = 10 * time.Second
	}
	if c.KillRecheck <= 0 {
		c.KillRecheck = 2 * time.Second
	}
	return c
}

// Supervisor owns one long-running server process and its lifecycle state.
// All state lives behind a single mutex with short critical sections; the
// output relay runs on its own goroutine and applies termination bookkeeping
// only when the handle it relayed for is still the tracked one and no
// operation is in flight.
type Supervisor struct {
	cfg       Config
	logger    *slog.Logger
	serverLog *slog.Logger // sink for relayed process output

	mu           sync.Mutex
	lifecycle    Lifecycle
	handle       *Handle
	lastExitCode *int
	inError      bool
	opActive     bool
}

// New creates a supervisor in the Offline state. State is always rebuilt
// empty: a process from a previous daemon run is never reattached.
func New(cfg Config) *Supervisor {
	return &Supervisor{
		cfg:       cfg.withDefaults(),
		logger:    logging.GetLogger("supervisor"),
		serverLog: logging.GetLogger("server"),
	}
}

// beginOp claims the single operation slot. A start/stop/kill already in
// progress must reach a terminal outcome before a new command is accepted.
func (s *Supervisor) beginOp() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opActive {
		return ErrOperationInProgress
	}
	s.opActive = true
	return nil
}

func (s *Supervisor) endOp() {
	s.mu.Lock()
	s.opActive = false
	s.mu.Unlock()
}

// Start spawns the server process and confirms liveness after the configured
// grace period. On a process that dies within the grace period it records the
// exit code and returns StartupFailedError; callers surface recent relayed
// output as diagnostic context.
func (s *Supervisor) Start() error {
	if err := s.beginOp(); err != nil {
		return err
	}
	defer s.endOp()

	s.mu.Lock()
	if s.lifecycle.IsActive() {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	script := s.cfg.StartScript
	if !filepath.IsAbs(script) {
		script = filepath.Join(s.cfg.Directory, script)
	}
	if _, err := os.Stat(script); err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.inError = true
			s.setLifecycle(LifecycleError)
			s.mu.Unlock()
			metrics.RecordOperation("start", "launch_not_found")
			return &LaunchNotFoundError{Path: script}
		}
		return fmt.Errorf("stat launch script: %w", err)
	}

	s.logger.Info("Starting server process", "script", script, "dir", s.cfg.Directory)

	h, err := spawn(script, s.cfg.Directory)
	if err != nil {
		s.mu.Lock()
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.mu.Unlock()
		metrics.RecordOperation("start", "spawn_failed")
		return fmt.Errorf("spawn server process: %w", err)
	}

	s.mu.Lock()
	s.inError = false
	s.lastExitCode = nil
	s.handle = h
	s.setLifecycle(LifecycleStarting)
	s.mu.Unlock()

	s.logger.Info("Server process started", "pid", h.PID())
	go s.relay(h)

	// Grace period before the liveness re-check
	time.Sleep(s.cfg.StartupGrace)

	if !h.Alive() {
		code, _ := h.ExitCode()
		s.mu.Lock()
		if s.handle == h {
			s.handle = nil
		}
		s.lastExitCode = &code
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.mu.Unlock()
		s.logger.Error("Server process died during startup", "exit_code", code)
		metrics.RecordOperation("start", "startup_failed")
		return &StartupFailedError{ExitCode: code}
	}

	s.mu.Lock()
	s.setLifecycle(LifecycleOnline)
	s.mu.Unlock()
	s.logger.Info("Server process confirmed running", "pid", h.PID())
	metrics.RecordOperation("start", "ok")
	return nil
}

// Stop writes the graceful-shutdown command to the server's stdin and awaits
// termination within the configured timeout. On success it returns the exit
// code; a nonzero code still counts as a completed stop but leaves the
// supervisor in the Error state. On timeout the process is left running and
// the handle retained so a subsequent Kill can reclaim it.
func (s *Supervisor) Stop() (int, error) {
	if err := s.beginOp(); err != nil {
		return 0, err
	}
	defer s.endOp()

	s.mu.Lock()
	if s.lifecycle != LifecycleOnline {
		s.mu.Unlock()
		return 0, ErrNotRunning
	}
	h := s.handle
	s.mu.Unlock()

	s.logger.Info("Sending stop command to server", "command", s.cfg.StopCommand)
	if _, err := io.WriteString(h.stdin, s.cfg.StopCommand+"\n"); err != nil {
		s.mu.Lock()
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.mu.Unlock()
		s.logger.Error("Failed to send stop command", "error", err)
		metrics.RecordOperation("stop", "signal_send_failed")
		return 0, &SignalSendError{Err: err}
	}

	s.mu.Lock()
	s.setLifecycle(LifecycleStopping)
	s.mu.Unlock()

	select {
	case <-h.Done():
		code, _ := h.ExitCode()
		s.mu.Lock()
		s.lastExitCode = &code
		if s.handle == h {
			s.handle = nil
		}
		if code != 0 {
			s.inError = true
			s.setLifecycle(LifecycleError)
		} else {
			s.inError = false
			s.setLifecycle(LifecycleOffline)
		}
		s.mu.Unlock()
		s.logger.Info("Server stopped", "exit_code", code)
		metrics.RecordOperation("stop", "ok")
		return code, nil

	case <-time.After(s.cfg.StopTimeout):
		// The process is still running; the handle stays tracked so the
		// operator can kill it.
		s.mu.Lock()
		s.inError = true
		s.setLifecycle(LifecycleError)
		s.mu.Unlock()
		s.logger.Error("Server did not stop within timeout", "timeout", s.cfg.StopTimeout)
		metrics.RecordOperation("stop", "timeout")
		return 0, &ShutdownTimeoutError{Timeout: s.cfg.StopTimeout}
	}
}

// Kill forcibly terminates the whole process tree rooted at the tracked
// process. It succeeds from the operator's point of view as long as a process
// existed: the handle is always cleared, the error flag reset, and the
// lifecycle set to Offline. The returned exit code is ExitCodeUnknown when no
// real code could be observed.
func (s *Supervisor) Kill() (int, error) {
	if err := s.beginOp(); err != nil {
		return 0, err
	}
	defer s.endOp()

	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()
	if h == nil {
		return 0, ErrNotRunning
	}

	pid := h.PID()
	s.logger.Warn("Killing server process tree", "pid", pid)
	killProcessTree(pid, s.cfg.KillTimeout, s.logger)

	select {
	case <-h.Done():
	case <-time.After(s.cfg.KillRecheck):
	}

	if h.Alive() {
		s.logger.Warn("Process still alive after group kill, sending direct kill", "pid", pid)
		if err := h.signalKill(); err != nil {
			s.logger.Error("Direct kill failed", "pid", pid, "error", err)
		}
		// Brief wait so the relay can record the exit code
		select {
		case <-h.Done():
		case <-time.After(s.cfg.KillRecheck):
		}
	}

	code := ExitCodeUnknown
	if observed, ok := h.ExitCode(); ok {
		code = observed
	}

	s.mu.Lock()
	if s.handle == h {
		s.handle = nil
	}
	s.lastExitCode = &code
	s.inError = false
	s.setLifecycle(LifecycleOffline)
	s.mu.Unlock()

	s.logger.Info("Server process tree killed", "pid", pid, "exit_code", code)
	metrics.RecordOperation("kill", "ok")
	return code, nil
}

// Status returns a snapshot of the supervisor state. It never blocks on
// process operations and never fails.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Lifecycle: s.lifecycle,
		InError:   s.inError,
	}
	if s.handle != nil {
		st.PID = s.handle.PID()
	}
	if s.lastExitCode != nil {
		code := *s.lastExitCode
		st.LastExitCode = &code
	}
	return st
}

// setLifecycle updates the lifecycle and its metrics gauge. Callers must hold
// the state mutex.
func (s *Supervisor) setLifecycle(l Lifecycle) {
	s.lifecycle = l
	metrics.SetLifecycle(l.String())
}
