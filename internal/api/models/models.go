package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Server status models
type ServerStatusData struct {
	Lifecycle    string `json:"lifecycle" example:"online" doc:"Lifecycle state: offline, starting, online, stopping, error"`
	PID          int    `json:"pid,omitempty" example:"12345" doc:"Process ID when a process exists"`
	LastExitCode *int   `json:"last_exit_code,omitempty" example:"0" doc:"Exit code of the last terminated process"`
	InError      bool   `json:"in_error" doc:"Whether the last termination was abnormal"`
	Presence     string `json:"presence,omitempty" example:"online" doc:"Last broadcast presence keyword"`
}

type ServerStatusResponse struct {
	Body ServerStatusData
}

// Operation result models. Start, stop and kill all answer with the same
// shape so clients can treat lifecycle commands uniformly.
type OperationData struct {
	Operation   string   `json:"operation" example:"start" doc:"Operation performed"`
	Lifecycle   string   `json:"lifecycle" example:"online" doc:"Lifecycle state after the operation"`
	ExitCode    *int     `json:"exit_code,omitempty" example:"0" doc:"Exit code observed by the operation, if any"`
	Message     string   `json:"message" example:"Server started" doc:"Human-readable outcome"`
	Diagnostics []string `json:"diagnostics,omitempty" doc:"Recent server output lines, attached on startup failures"`
}

type OperationResponse struct {
	Body OperationData
}

// Log models
type LogLine struct {
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level     string `json:"level" example:"info" doc:"Log level"`
	Module    string `json:"module" example:"server" doc:"Originating module"`
	Message   string `json:"message" doc:"Log message"`
}

type LogsData struct {
	Lines []LogLine `json:"lines" doc:"Most recent log lines, oldest first"`
	Count int       `json:"count" example:"50" doc:"Number of lines returned"`
}

type LogsResponse struct {
	Body LogsData
}

// Config summary models. Secrets never appear here.
type ConfigSummaryData struct {
	ServerDirectory     string `json:"server_directory" example:"/srv/game" doc:"Server working directory"`
	StartScript         string `json:"start_script" example:"start.sh" doc:"Launch script"`
	StopCommand         string `json:"stop_command" example:"stop" doc:"Graceful shutdown console command"`
	StopTimeoutSeconds  int    `json:"stop_timeout_seconds" example:"60" doc:"Graceful-stop timeout"`
	Language            string `json:"language" example:"en" doc:"Presence language"`
	PollIntervalSeconds int    `json:"poll_interval_seconds" example:"15" doc:"Presence reconciliation interval"`
	AIEnabled           bool   `json:"ai_enabled" doc:"Whether the chat responder is active"`
	AIPersonality       string `json:"ai_personality,omitempty" example:"default" doc:"Active responder personality"`
	ModsDir             string `json:"mods_dir" example:"/srv/game/mods" doc:"Mod directory being scanned"`
}

type ConfigSummaryResponse struct {
	Body ConfigSummaryData
}

// Mod models
type ModData struct {
	ID      string `json:"id,omitempty" example:"sodium" doc:"Mod identifier from its descriptor"`
	Name    string `json:"name" example:"Sodium" doc:"Display name"`
	Version string `json:"version,omitempty" example:"0.5.8" doc:"Mod version"`
	Loader  string `json:"loader,omitempty" example:"fabric" doc:"Mod loader the descriptor targets"`
	File    string `json:"file" example:"sodium.jar" doc:"Jar filename"`
}

type ModListData struct {
	Mods  []ModData `json:"mods" doc:"Mods sorted by name"`
	Count int       `json:"count" example:"42" doc:"Number of mods found"`
}

type ModListResponse struct {
	Body ModListData
}

// Chat models
type ChatRequest struct {
	Body struct {
		Author  string `json:"author" minLength:"1" maxLength:"64" example:"steve" doc:"Who is asking"`
		Message string `json:"message" minLength:"1" maxLength:"2000" doc:"The chat message"`
	}
}

type ChatData struct {
	Reply    string `json:"reply" doc:"The responder's answer"`
	Fallback bool   `json:"fallback" doc:"True when the model was unreachable and a canned line was used"`
}

type ChatResponse struct {
	Body ChatData
}

// Personality models
type PersonalityData struct {
	Active    string   `json:"active" example:"default" doc:"Active personality"`
	Available []string `json:"available" doc:"Registered personality names"`
}

type PersonalityResponse struct {
	Body PersonalityData
}

type PersonalityRequest struct {
	Body struct {
		Name string `json:"name" minLength:"1" example:"grumpy" doc:"Personality to activate"`
	}
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}
