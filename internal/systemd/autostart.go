// Package systemd installs and manages the daemon's user-level autostart
// unit via D-Bus.
package systemd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/dbus"
)

// UnitName is the user unit the daemon installs for autostart.
const UnitName = "mcwarden.service"

const unitTemplate = `[Unit]
Description=mcwarden game server supervisor
After=network-online.target

[Service]
ExecStart=%s serve
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

// Manager handles the autostart unit through a user-level D-Bus connection.
type Manager struct {
	conn    *dbus.Conn
	unitDir string
}

// NewManager connects to the user systemd instance.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to user systemd: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Manager{
		conn:    conn,
		unitDir: filepath.Join(home, ".config", "systemd", "user"),
	}, nil
}

// UnitPath returns where the autostart unit file lives.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, UnitName)
}

// Install writes the unit file for the given executable, enables it and
// starts it.
func (m *Manager) Install(ctx context.Context, execPath string) error {
	if err := os.MkdirAll(m.unitDir, 0o755); err != nil {
		return fmt.Errorf("failed to create unit directory: %w", err)
	}

	unit := fmt.Sprintf(unitTemplate, execPath)
	if err := os.WriteFile(m.UnitPath(), []byte(unit), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}

	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{UnitName}, false, true); err != nil {
		return fmt.Errorf("failed to enable unit: %w", err)
	}

	if _, err := m.conn.StartUnitContext(ctx, UnitName, "replace", nil); err != nil {
		return fmt.Errorf("failed to start unit: %w", err)
	}
	return nil
}

// Remove stops and disables the unit and deletes its file.
func (m *Manager) Remove(ctx context.Context) error {
	// Stop errors are tolerable, the unit may not be running
	if _, err := m.conn.StopUnitContext(ctx, UnitName, "replace", nil); err != nil {
		_ = err
	}

	if _, err := m.conn.DisableUnitFilesContext(ctx, []string{UnitName}, false); err != nil {
		return fmt.Errorf("failed to disable unit: %w", err)
	}

	if err := os.Remove(m.UnitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}

	return m.conn.ReloadContext(ctx)
}

// Status returns the unit's ActiveState, or "not-installed" when no unit
// file exists.
func (m *Manager) Status(ctx context.Context) (string, error) {
	if _, err := os.Stat(m.UnitPath()); os.IsNotExist(err) {
		return "not-installed", nil
	}

	prop, err := m.conn.GetUnitPropertyContext(ctx, UnitName, "ActiveState")
	if err != nil {
		return "", fmt.Errorf("failed to query unit state: %w", err)
	}
	return prop.Value.String(), nil
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
