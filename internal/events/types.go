package events

// Event type constants for kelindar/event.
const (
	TypePresenceUpdated uint32 = iota + 1
	TypeServerStateChanged
	TypeLogEntry
	TypeModsRescanned
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PresenceUpdatedEvent is the rendered, user-visible status signal. It is
// published whenever the broadcast keyword actually changes (transient states
// pushed by commands, terminal states by the status synchronizer).
type PresenceUpdatedEvent struct {
	Keyword   string `json:"keyword" example:"online" doc:"Status keyword: online, offline, starting, stopping, error"`
	Text      string `json:"text" example:"Server is online" doc:"Rendered presence text in the configured language"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Broadcast timestamp"`
}

// Type returns the event type identifier for PresenceUpdatedEvent.
func (e PresenceUpdatedEvent) Type() uint32 { return TypePresenceUpdated }

// ServerStateChangedEvent reports a supervisor lifecycle transition together
// with its exit bookkeeping. Published by the API layer after each operation.
type ServerStateChangedEvent struct {
	Lifecycle    string `json:"lifecycle" example:"online" doc:"Supervisor lifecycle state"`
	PID          int    `json:"pid,omitempty" example:"12345" doc:"Process ID when a process exists"`
	LastExitCode *int   `json:"last_exit_code,omitempty" doc:"Exit code of the last terminated process"`
	InError      bool   `json:"in_error" doc:"Whether the last termination was abnormal"`
	Timestamp    string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ServerStateChangedEvent.
func (e ServerStateChangedEvent) Type() uint32 { return TypeServerStateChanged }

// LogEntryEvent carries a single log line to SSE subscribers.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"server" doc:"Originating module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// ModsRescannedEvent is published after the mod directory has been rescanned.
type ModsRescannedEvent struct {
	Count     int    `json:"count" example:"42" doc:"Number of mods found"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Scan timestamp"`
}

// Type returns the event type identifier for ModsRescannedEvent.
func (e ModsRescannedEvent) Type() uint32 { return TypeModsRescanned }
