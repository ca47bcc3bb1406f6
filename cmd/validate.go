package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mcwarden/mcwarden/internal/config"
	"github.com/mcwarden/mcwarden/internal/mods"
)

// CreateValidateCmd creates the validate command, which checks a settings
// file and the server installation it points at without starting anything.
func CreateValidateCmd() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the daemon configuration",
		Long: `Loads the settings file and verifies the server installation it describes: ` +
			`working directory, launch script and mod directory. Nothing is started.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(settingsFile)
			if err != nil {
				return fmt.Errorf("settings: %w", err)
			}

			failures := 0
			check := func(ok bool, what, detail string) {
				if ok {
					fmt.Printf("ok    %-20s %s\n", what, detail)
					return
				}
				failures++
				fmt.Printf("FAIL  %-20s %s\n", what, detail)
			}

			dir := settings.Server.Directory
			info, statErr := os.Stat(dir)
			check(statErr == nil && info.IsDir(), "server directory", dir)

			script := settings.Server.StartScript
			if !filepath.IsAbs(script) {
				script = filepath.Join(dir, script)
			}
			scriptInfo, scriptErr := os.Stat(script)
			check(scriptErr == nil, "start script", script)
			if scriptErr == nil {
				check(scriptInfo.Mode()&0o111 != 0, "script executable", scriptInfo.Mode().String())
			}

			modsDir := settings.ModsDir()
			if _, err := os.Stat(modsDir); err == nil {
				scanner := mods.NewScanner(modsDir, settings.Mods.CacheTTL(), "")
				list, scanErr := scanner.List(true)
				check(scanErr == nil, "mod directory", fmt.Sprintf("%s (%d mods)", modsDir, len(list)))
			} else {
				fmt.Printf("skip  %-20s %s does not exist\n", "mod directory", modsDir)
			}

			if settings.AI.Enabled && os.Getenv("MCWARDEN_GEMINI_API_KEY") == "" {
				fmt.Printf("warn  %-20s enabled but MCWARDEN_GEMINI_API_KEY is not set\n", "ai responder")
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Println("configuration is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&settingsFile, "settings", "s", "mcwarden.toml", "Settings file to validate")
	return cmd
}
