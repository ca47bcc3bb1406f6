package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServerSettings describes the supervised server process.
type ServerSettings struct {
	// Directory is the server working directory.
	Directory string `toml:"directory" json:"directory"`
	// StartScript launches the server, absolute or relative to Directory.
	StartScript string `toml:"start_script" json:"start_script"`
	// StopCommand is written to the server console for a graceful shutdown.
	StopCommand string `toml:"stop_command" json:"stop_command"`

	StartupGraceSeconds int `toml:"startup_grace_seconds" json:"startup_grace_seconds"`
	StopTimeoutSeconds  int `toml:"stop_timeout_seconds" json:"stop_timeout_seconds"`
	KillTimeoutSeconds  int `toml:"kill_timeout_seconds" json:"kill_timeout_seconds"`
}

// PresenceSettings controls presence text rendering and the periodic
// state-to-presence reconciliation.
type PresenceSettings struct {
	Language            string `toml:"language" json:"language"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds" json:"poll_interval_seconds"`
}

// AISettings configures the chat responder.
type AISettings struct {
	Enabled     bool   `toml:"enabled" json:"enabled"`
	Model       string `toml:"model" json:"model"`
	Personality string `toml:"personality" json:"personality"`
	// PersonalityFile points at a TOML file with additional personalities.
	PersonalityFile string `toml:"personality_file" json:"personality_file"`
}

// ModsSettings configures the mod directory scanner.
type ModsSettings struct {
	// Dir is the mods directory, absolute or relative to the server directory.
	Dir             string `toml:"dir" json:"dir"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes" json:"cache_ttl_minutes"`
	CacheFile       string `toml:"cache_file" json:"cache_file"`
}

// Settings is the daemon's file-backed configuration.
type Settings struct {
	Server   ServerSettings   `toml:"server" json:"server"`
	Presence PresenceSettings `toml:"presence" json:"presence"`
	AI       AISettings       `toml:"ai" json:"ai"`
	Mods     ModsSettings     `toml:"mods" json:"mods"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			StartScript:         "start.sh",
			StopCommand:         "stop",
			StartupGraceSeconds: 3,
			StopTimeoutSeconds:  60,
			KillTimeoutSeconds:  10,
		},
		Presence: PresenceSettings{
			Language:            "en",
			PollIntervalSeconds: 15,
		},
		AI: AISettings{
			Model:       "gemini-1.5-flash",
			Personality: "default",
		},
		Mods: ModsSettings{
			Dir:             "mods",
			CacheTTLMinutes: 5,
		},
	}
}

// LoadSettings reads the settings file at path. A missing file yields the
// defaults; a malformed file is an error.
func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse settings: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// SaveSettings writes the settings to path, creating parent directories.
func SaveSettings(path string, cfg Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// applyDefaults fills in zero-valued fields the file omitted.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()
	if s.Server.StartScript == "" {
		s.Server.StartScript = def.Server.StartScript
	}
	if s.Server.StopCommand == "" {
		s.Server.StopCommand = def.Server.StopCommand
	}
	if s.Server.StartupGraceSeconds <= 0 {
		s.Server.StartupGraceSeconds = def.Server.StartupGraceSeconds
	}
	if s.Server.StopTimeoutSeconds <= 0 {
		s.Server.StopTimeoutSeconds = def.Server.StopTimeoutSeconds
	}
	if s.Server.KillTimeoutSeconds <= 0 {
		s.Server.KillTimeoutSeconds = def.Server.KillTimeoutSeconds
	}
	if s.Presence.Language == "" {
		s.Presence.Language = def.Presence.Language
	}
	if s.Presence.PollIntervalSeconds <= 0 {
		s.Presence.PollIntervalSeconds = def.Presence.PollIntervalSeconds
	}
	if s.AI.Model == "" {
		s.AI.Model = def.AI.Model
	}
	if s.AI.Personality == "" {
		s.AI.Personality = def.AI.Personality
	}
	if s.Mods.Dir == "" {
		s.Mods.Dir = def.Mods.Dir
	}
	if s.Mods.CacheTTLMinutes <= 0 {
		s.Mods.CacheTTLMinutes = def.Mods.CacheTTLMinutes
	}
}

// StartupGrace returns the startup grace period as a duration.
func (s ServerSettings) StartupGrace() time.Duration {
	return time.Duration(s.StartupGraceSeconds) * time.Second
}

// StopTimeout returns the graceful-stop timeout as a duration.
func (s ServerSettings) StopTimeout() time.Duration {
	return time.Duration(s.StopTimeoutSeconds) * time.Second
}

// KillTimeout returns the kill bound as a duration.
func (s ServerSettings) KillTimeout() time.Duration {
	return time.Duration(s.KillTimeoutSeconds) * time.Second
}

// PollInterval returns the presence reconciliation interval as a duration.
func (p PresenceSettings) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

// CacheTTL returns the mod cache lifetime as a duration.
func (m ModsSettings) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLMinutes) * time.Minute
}

// ModsDir resolves the mods directory against the server directory.
func (s Settings) ModsDir() string {
	if filepath.IsAbs(s.Mods.Dir) {
		return s.Mods.Dir
	}
	return filepath.Join(s.Server.Directory, s.Mods.Dir)
}
