// Package presence keeps the externally visible server status in sync with
// the supervisor. A broadcaster renders status keywords into presence text
// and publishes them; the synchronizer reconciles the broadcast status with
// the actual process state on a fixed interval.
package presence

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcwarden/mcwarden/internal/config"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/logging"
	"github.com/mcwarden/mcwarden/internal/metrics"
)

// Presence keywords. They name the externally visible status, which tracks
// but is distinct from the supervisor lifecycle.
const (
	KeywordOnline   = "online"
	KeywordOffline  = "offline"
	KeywordStarting = "starting"
	KeywordStopping = "stopping"
	KeywordError    = "error"
)

// Broadcaster publishes the server's presence status. Push is best-effort:
// implementations report failures but callers treat presence as advisory and
// never fail an operation over it.
type Broadcaster interface {
	// Push broadcasts the status keyword. Repeated pushes of the current
	// keyword are deduplicated.
	Push(keyword string) error
	// Current returns the last successfully broadcast keyword, empty when
	// nothing has been broadcast yet.
	Current() string
}

// BusBroadcaster renders keywords through the configured translator and
// publishes PresenceUpdatedEvent on the event bus, where SSE subscribers and
// any future chat integration pick them up.
type BusBroadcaster struct {
	bus        *events.Bus
	translator *config.Translator
	logger     *slog.Logger

	mu      sync.Mutex
	current string
}

// NewBusBroadcaster creates a broadcaster backed by the event bus.
func NewBusBroadcaster(bus *events.Bus, translator *config.Translator) *BusBroadcaster {
	return &BusBroadcaster{
		bus:        bus,
		translator: translator,
		logger:     logging.GetLogger("presence"),
	}
}

// Push publishes the keyword unless it is already the current status.
func (b *BusBroadcaster) Push(keyword string) error {
	b.mu.Lock()
	if b.current == keyword {
		b.mu.Unlock()
		return nil
	}
	b.current = keyword
	b.mu.Unlock()

	text := b.translator.Render(keyword)
	b.logger.Debug("Broadcasting presence", "keyword", keyword, "text", text)
	b.bus.Publish(events.PresenceUpdatedEvent{
		Keyword:   keyword,
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	metrics.RecordPresenceUpdate()
	return nil
}

// Current returns the last broadcast keyword.
func (b *BusBroadcaster) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
