package presence

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/metrics"
	"github.com/mcwarden/mcwarden/internal/supervisor"
)

// StatusSource provides supervisor state snapshots.
type StatusSource interface {
	Status() supervisor.Status
}

// Synchronizer periodically reconciles the broadcast presence with the real
// process state. Commands push transient states (starting, stopping)
// immediately; the synchronizer is the authority for the terminal ones, so a
// crash with no command in flight still reaches observers within one tick.
type Synchronizer struct {
	source      StatusSource
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSynchronizer creates a synchronizer polling at the given interval.
func NewSynchronizer(source StatusSource, broadcaster Broadcaster, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Synchronizer{
		source:      source,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      logging.GetLogger("presence"),
	}
}

// Start begins the reconciliation loop. An immediate tick runs first so a
// fresh daemon broadcasts its state without waiting a full interval.
func (s *Synchronizer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("Presence synchronizer started", "interval", s.interval)
	go s.run(ctx)
}

// Stop terminates the loop and waits for it to exit.
func (s *Synchronizer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("Presence synchronizer stopped")
}

func (s *Synchronizer) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Reconcile()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reconcile()
		}
	}
}

// Reconcile samples the supervisor once and pushes the matching presence
// keyword. Broadcast failures are logged and counted, never propagated: a
// presence outage must not disturb process management.
func (s *Synchronizer) Reconcile() {
	keyword := KeywordFor(s.source.Status())
	if err := s.broadcaster.Push(keyword); err != nil {
		s.logger.Warn("Presence broadcast failed", "keyword", keyword, "error", err)
		metrics.RecordPresenceFailure()
	}
}

// KeywordFor maps a supervisor snapshot to its presence keyword. The error
// flag wins over everything: a retained-handle timeout or an abnormal exit
// shows as error even though a process may still be running.
func KeywordFor(st supervisor.Status) string {
	if st.InError {
		return KeywordError
	}
	switch st.Lifecycle {
	case supervisor.LifecycleOnline:
		return KeywordOnline
	case supervisor.LifecycleStarting:
		return KeywordStarting
	case supervisor.LifecycleStopping:
		return KeywordStopping
	case supervisor.LifecycleError:
		return KeywordError
	default:
		return KeywordOffline
	}
}
