package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcwarden/mcwarden/internal/updater"
	"github.com/mcwarden/mcwarden/internal/version"
)

// repositorySlug is the GitHub repository releases are fetched from.
const repositorySlug = "mcwarden/mcwarden"

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var apply bool
	var prerelease bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and apply binary updates",
		Long: `Checks GitHub releases for a newer version. With --apply the binary is ` +
			`replaced in place after backing up the current one; a failed update rolls back automatically.`,
		RunE: func(c *cobra.Command, _ []string) error {
			service, err := updater.NewService(&updater.Options{
				Repository: repositorySlug,
				Prerelease: prerelease,
			})
			if err != nil {
				return err
			}
			if !service.IsEnabled() {
				return fmt.Errorf("updates unavailable: %s", service.DisabledReason())
			}

			info, err := service.CheckForUpdate(c.Context())
			if err != nil {
				return err
			}

			if !info.UpdateAvailable {
				fmt.Printf("%s is up to date\n", version.String())
				return nil
			}

			fmt.Printf("update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			if info.ReleaseURL != "" {
				fmt.Println(info.ReleaseURL)
			}
			if !apply {
				fmt.Println("run with --apply to install")
				return nil
			}

			if err := service.ApplyUpdate(c.Context()); err != nil {
				return err
			}
			fmt.Printf("updated to %s, restart the daemon to use it\n", info.LatestVersion)
			return nil
		},
	}

	rollback := &cobra.Command{
		Use:   "rollback",
		Short: "Restore the previously backed up binary",
		RunE: func(c *cobra.Command, _ []string) error {
			service, err := updater.NewService(&updater.Options{Repository: repositorySlug})
			if err != nil {
				return err
			}
			if err := service.Rollback(c.Context()); err != nil {
				return err
			}
			fmt.Println("rollback complete, restart the daemon")
			return nil
		},
	}
	cmd.AddCommand(rollback)

	cmd.Flags().BoolVar(&apply, "apply", false, "Download and install the update")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prereleases")
	return cmd
}
