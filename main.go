package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/mcwarden/mcwarden/cmd"
	"github.com/mcwarden/mcwarden/internal/ai"
	"github.com/mcwarden/mcwarden/internal/api"
	"github.com/mcwarden/mcwarden/internal/config"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/metrics"
	"github.com/mcwarden/mcwarden/internal/mods"
	"github.com/mcwarden/mcwarden/internal/presence"
	"github.com/mcwarden/mcwarden/internal/supervisor"
)

// geminiKeyEnv holds the Gemini API key. Kept out of the settings file so the
// key never lands on disk in plain text.
const geminiKeyEnv = "MCWARDEN_GEMINI_API_KEY"

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Daemon settings
	SettingsFile string `help:"Daemon settings file" short:"s" default:"mcwarden.toml" toml:"daemon.settings_file" env:"SETTINGS_FILE"`
	Translations string `help:"Presence translation overrides file" default:"" toml:"daemon.translations_file" env:"TRANSLATIONS_FILE"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingServer     string `help:"Relayed server output level" default:"info" toml:"logging.server" env:"LOGGING_SERVER"`
	LoggingPresence   string `help:"Presence logging level" default:"info" toml:"logging.presence" env:"LOGGING_PRESENCE"`
	LoggingMods       string `help:"Mods scanner logging level" default:"info" toml:"logging.mods" env:"LOGGING_MODS"`
	LoggingAI         string `help:"AI responder logging level" default:"info" toml:"logging.ai" env:"LOGGING_AI"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// The config file may set levels for modules that have no flag
		// (updater, systemd, config); flags and env win for the ones that do.
		loggingConfig := config.LoadLoggingConfig(opts.Config)
		loggingConfig.Level = opts.LoggingLevel
		loggingConfig.Format = opts.LoggingFormat
		for module, level := range map[string]string{
			"supervisor": opts.LoggingSupervisor,
			"server":     opts.LoggingServer,
			"presence":   opts.LoggingPresence,
			"mods":       opts.LoggingMods,
			"ai":         opts.LoggingAI,
			"api":        opts.LoggingAPI,
		} {
			loggingConfig.Modules[module] = level
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		settings, err := config.LoadSettings(opts.SettingsFile)
		if err != nil {
			logger.Error("Failed to load settings", "path", opts.SettingsFile, "error", err)
			os.Exit(1)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Forward every log line onto the bus so SSE clients see live logs
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		translator := config.NewTranslator(settings.Presence.Language)
		if opts.Translations != "" {
			if tErr := translator.LoadOverrides(opts.Translations); tErr != nil {
				logger.Warn("Failed to load translation overrides", "path", opts.Translations, "error", tErr)
			}
		}

		sup := supervisor.New(supervisor.Config{
			Directory:    settings.Server.Directory,
			StartScript:  settings.Server.StartScript,
			StopCommand:  settings.Server.StopCommand,
			StartupGrace: settings.Server.StartupGrace(),
			StopTimeout:  settings.Server.StopTimeout(),
			KillTimeout:  settings.Server.KillTimeout(),
		})

		broadcaster := presence.NewBusBroadcaster(eventBus, translator)
		synchronizer := presence.NewSynchronizer(sup, broadcaster, settings.Presence.PollInterval())

		scanner := mods.NewScanner(settings.ModsDir(), settings.Mods.CacheTTL(), settings.Mods.CacheFile)

		registry := ai.NewRegistry()
		if settings.AI.PersonalityFile != "" {
			if pErr := registry.LoadFile(settings.AI.PersonalityFile); pErr != nil {
				logger.Warn("Failed to load personalities", "path", settings.AI.PersonalityFile, "error", pErr)
			}
		}

		var responder *ai.Responder
		if settings.AI.Enabled {
			responder, err = ai.NewResponder(context.Background(),
				os.Getenv(geminiKeyEnv), settings.AI.Model, settings.AI.Personality, registry)
			if err != nil {
				logger.Warn("Failed to initialize chat responder", "error", err)
			} else if !responder.Enabled() {
				logger.Warn("Chat is configured but no API key is set", "env", geminiKeyEnv)
			}
			if responder != nil {
				responder.SetContextProvider(func() string {
					st := sup.Status()
					line := "lifecycle: " + st.Lifecycle.String()
					if list, listErr := scanner.List(false); listErr == nil {
						line += "\n" + "installed mods: " + strconv.Itoa(len(list))
					}
					return line
				})
			}
		}

		// Personality overrides are picked up without a restart; the server
		// block of the settings file still requires one.
		settingsWatcher := config.NewConfigWatcher(opts.SettingsFile, config.LoadSettings, logger)
		settingsWatcher.OnReload(func(updated config.Settings) {
			if updated.AI.PersonalityFile != "" {
				if pErr := registry.LoadFile(updated.AI.PersonalityFile); pErr != nil {
					logger.Warn("Failed to reload personalities", "error", pErr)
				}
			}
			if responder != nil && updated.AI.Personality != "" {
				responder.SetPersonality(updated.AI.Personality)
			}
		})

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Controller:        sup,
			Broadcaster:       broadcaster,
			Scanner:           scanner,
			Responder:         responder,
			Registry:          registry,
			Settings:          settings,
			EventBus:          eventBus,
			PrometheusHandler: metrics.Handler(),
		})

		hooks.OnStart(func() {
			synchronizer.Start()

			if watchErr := settingsWatcher.Start(); watchErr != nil {
				logger.Warn("Settings watcher not started", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			settingsWatcher.Stop()
			synchronizer.Stop()

			// Take the managed server down with us rather than orphan it.
			if st := sup.Status(); st.Lifecycle != supervisor.LifecycleOffline {
				logger.Info("Stopping managed server")
				if _, stopErr := sup.Stop(); stopErr != nil && !errors.Is(stopErr, supervisor.ErrNotRunning) {
					logger.Warn("Graceful stop failed, killing", "error", stopErr)
					if _, killErr := sup.Kill(); killErr != nil && !errors.Is(killErr, supervisor.ErrNotRunning) {
						logger.Error("Failed to kill managed server", "error", killErr)
					}
				}
			}

			if responder != nil {
				responder.Close()
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateValidateCmd())
	cli.Root().AddCommand(cmd.CreateAutostartCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}
