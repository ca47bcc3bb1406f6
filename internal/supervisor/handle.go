package supervisor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
)

// Handle owns the OS process for a single server run. It is created by Start
// and referenced by the supervisor until a stop/kill completes or the output
// relay observes termination. The relay records the exit code and closes done
// exactly once; readers must observe done before trusting the exit code.
type Handle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	output io.ReadCloser // read side of the combined stdout+stderr pipe
	done   chan struct{}

	// Written by the relay before close(done); read only after <-done.
	exitCode int
}

// spawn starts the launch script with stdin writable and stdout+stderr
// captured on a single shared pipe, in its own process group so the whole
// tree can be reclaimed on kill.
func spawn(script, dir string) (*Handle, error) {
	cmd := exec.Command(script)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	// One pipe for both streams keeps relayed output in arrival order,
	// matching what an operator would see on a console.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}

	// The child holds its own copies of the write end.
	pw.Close()

	return &Handle{
		cmd:    cmd,
		stdin:  stdin,
		output: pr,
		done:   make(chan struct{}),
	}, nil
}

// PID returns the operating-system process identifier.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Alive reports whether the process is still running.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Done is closed once the process has exited and its exit code is recorded.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitCode returns the recorded exit code. Valid only after Done is closed.
func (h *Handle) ExitCode() (int, bool) {
	select {
	case <-h.done:
		return h.exitCode, true
	default:
		return 0, false
	}
}

// recordExit stores the exit code and marks the handle terminated.
// Called exactly once, by the output relay.
func (h *Handle) recordExit(code int) {
	h.exitCode = code
	close(h.done)
}

// signalKill sends SIGKILL directly to the tracked process. Used as a second
// attempt when the process-group kill left the process alive.
func (h *Handle) signalKill() error {
	err := h.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// exitCodeFromError extracts an exit code from the error returned by Wait.
// Returns 0 for nil, the real code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
