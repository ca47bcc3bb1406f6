package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcwarden/mcwarden/internal/systemd"
)

// CreateAutostartCmd creates the autostart command for managing the
// user-level systemd unit.
func CreateAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage the daemon's systemd autostart unit",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install, enable and start the user unit",
		RunE: func(c *cobra.Command, _ []string) error {
			manager, err := systemd.NewManager(c.Context())
			if err != nil {
				return err
			}
			defer manager.Close()

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			if err := manager.Install(c.Context(), exe); err != nil {
				return err
			}
			fmt.Printf("installed %s\n", manager.UnitPath())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "Stop, disable and remove the user unit",
		RunE: func(c *cobra.Command, _ []string) error {
			manager, err := systemd.NewManager(c.Context())
			if err != nil {
				return err
			}
			defer manager.Close()

			if err := manager.Remove(c.Context()); err != nil {
				return err
			}
			fmt.Println("autostart unit removed")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the unit's state",
		RunE: func(c *cobra.Command, _ []string) error {
			manager, err := systemd.NewManager(c.Context())
			if err != nil {
				return err
			}
			defer manager.Close()

			state, err := manager.Status(c.Context())
			if err != nil {
				return err
			}
			fmt.Println(state)
			return nil
		},
	})

	return cmd
}
