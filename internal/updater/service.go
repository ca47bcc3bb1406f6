package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/version"
)

// UpdateInfo describes the result of an update check.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseNotes    string    `json:"release_notes,omitempty"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Options configures the update service.
type Options struct {
	// Repository is the GitHub repo slug, e.g. "mcwarden/mcwarden".
	Repository string
	// Prerelease includes prereleases in the check.
	Prerelease bool
}

// Service checks for and applies binary updates with rollback support.
type Service struct {
	repository    selfupdate.Repository
	updater       *selfupdate.Updater
	backupManager *backupManager

	mu            sync.RWMutex
	latestRelease *selfupdate.Release

	enabled        bool
	disabledReason string

	logger *slog.Logger
}

// NewService creates the update service. When the binary location is not
// writable the service comes up disabled rather than failing.
func NewService(opts *Options) (*Service, error) {
	logger := logging.GetLogger("updater")

	canWrite, reason := checkWritePermission()
	if !canWrite {
		logger.Warn("Update service disabled", "reason", reason)
		return &Service{
			enabled:        false,
			disabledReason: reason,
			logger:         logger,
		}, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backupMgr, err := newBackupManager(logger)
	if err != nil {
		logger.Warn("Failed to create backup manager", "error", err)
	}

	return &Service{
		repository:    selfupdate.ParseSlug(opts.Repository),
		updater:       up,
		backupManager: backupMgr,
		enabled:       true,
		logger:        logger,
	}, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	tmp := filepath.Join(dir, ".mcwarden.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(tmp)
	return true, ""
}

// IsEnabled reports whether updates can be applied.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// DisabledReason returns why the service is disabled, empty if enabled.
func (s *Service) DisabledReason() string {
	return s.disabledReason
}

// CheckForUpdate queries GitHub for the latest release and compares it
// against the running version without downloading anything.
func (s *Service) CheckForUpdate(ctx context.Context) (*UpdateInfo, error) {
	if !s.enabled {
		return nil, newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	currentVersion := version.Version

	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		return nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		return nil, newError(ErrCodeNoRelease, "repository not found or has no releases", nil)
	}

	// A dev build is always considered outdated
	isNewer := currentVersion == "dev" || release.GreaterThan(currentVersion)
	if !isNewer {
		return &UpdateInfo{
			CurrentVersion:  currentVersion,
			LatestVersion:   release.Version(),
			UpdateAvailable: false,
		}, nil
	}

	s.mu.Lock()
	s.latestRelease = release
	s.mu.Unlock()

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		UpdateAvailable: true,
	}, nil
}

// ApplyUpdate downloads and applies the latest release, backing up the
// current binary first. On failure the backup is restored automatically.
func (s *Service) ApplyUpdate(ctx context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	s.mu.RLock()
	release := s.latestRelease
	s.mu.RUnlock()

	if release == nil {
		info, err := s.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if !info.UpdateAvailable {
			return newError(ErrCodeNoUpdate, "no update available", nil)
		}
		s.mu.RLock()
		release = s.latestRelease
		s.mu.RUnlock()
	}

	if s.backupManager != nil {
		if err := s.backupManager.createBackup(); err != nil {
			return newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.attemptRollback()
		return newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.logger.Info("Update applied", "version", release.Version())
	return nil
}

// Rollback restores the previously backed up binary.
func (s *Service) Rollback(_ context.Context) error {
	if !s.enabled {
		return newError(ErrCodeDisabled, s.disabledReason, nil)
	}

	if s.backupManager == nil || !s.backupManager.hasBackup() {
		return newError(ErrCodeNoBackup, "no backup available for rollback", nil)
	}

	if err := s.backupManager.restore(); err != nil {
		return newError(ErrCodeRollbackFailed, "failed to restore backup", err)
	}

	s.logger.Info("Rollback completed", "version", s.backupManager.backupVersion())
	return nil
}

func (s *Service) attemptRollback() {
	if s.backupManager == nil || !s.backupManager.hasBackup() {
		s.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := s.backupManager.restore(); err != nil {
		s.logger.Error("Failed to restore backup", "error", err)
		return
	}
	s.logger.Info("Automatic rollback completed")
}
