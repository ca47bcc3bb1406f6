package supervisor

// Lifecycle represents the supervisor's view of the server process.
type Lifecycle int

const (
	// LifecycleOffline means no process exists and the last run ended cleanly
	// (or no run has happened yet).
	LifecycleOffline Lifecycle = iota

	// LifecycleStarting means the process has been spawned but liveness has
	// not been confirmed yet.
	LifecycleStarting

	// LifecycleOnline means the process is running.
	LifecycleOnline

	// LifecycleStopping means a graceful shutdown has been requested and the
	// supervisor is waiting for the process to exit.
	LifecycleStopping

	// LifecycleError means the last operation or termination was abnormal.
	LifecycleError
)

// String returns a human-readable name for the lifecycle state.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleOffline:
		return "offline"
	case LifecycleStarting:
		return "starting"
	case LifecycleOnline:
		return "online"
	case LifecycleStopping:
		return "stopping"
	case LifecycleError:
		return "error"
	default:
		return "unknown"
	}
}

// IsActive returns true if a process handle is expected to exist in this state.
func (l Lifecycle) IsActive() bool {
	return l == LifecycleStarting || l == LifecycleOnline || l == LifecycleStopping
}

// Status is a point-in-time snapshot of the supervisor state. It is a copy;
// reading it never blocks on process operations.
type Status struct {
	Lifecycle    Lifecycle
	PID          int // 0 when no process exists
	LastExitCode *int
	InError      bool
}
