package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/mcwarden/mcwarden/internal/config"
	"github.com/mcwarden/mcwarden/internal/events"
	"github.com/mcwarden/mcwarden/internal/supervisor"
)

type fakeSource struct {
	mu sync.Mutex
	st supervisor.Status
}

func (f *fakeSource) Status() supervisor.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSource) set(st supervisor.Status) {
	f.mu.Lock()
	f.st = st
	f.mu.Unlock()
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	pushes  []string
	current string
	err     error
}

func (r *recordingBroadcaster) Push(keyword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.current == keyword {
		return nil
	}
	r.current = keyword
	r.pushes = append(r.pushes, keyword)
	return nil
}

func (r *recordingBroadcaster) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *recordingBroadcaster) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pushes...)
}

func TestKeywordFor(t *testing.T) {
	cases := []struct {
		name string
		st   supervisor.Status
		want string
	}{
		{"offline", supervisor.Status{Lifecycle: supervisor.LifecycleOffline}, KeywordOffline},
		{"starting", supervisor.Status{Lifecycle: supervisor.LifecycleStarting, PID: 1}, KeywordStarting},
		{"online", supervisor.Status{Lifecycle: supervisor.LifecycleOnline, PID: 1}, KeywordOnline},
		{"stopping", supervisor.Status{Lifecycle: supervisor.LifecycleStopping, PID: 1}, KeywordStopping},
		{"error state", supervisor.Status{Lifecycle: supervisor.LifecycleError}, KeywordError},
		{"error flag wins over online", supervisor.Status{Lifecycle: supervisor.LifecycleOnline, PID: 1, InError: true}, KeywordError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KeywordFor(tc.st); got != tc.want {
				t.Errorf("KeywordFor(%+v) = %q, want %q", tc.st, got, tc.want)
			}
		})
	}
}

func TestBusBroadcasterRendersAndDedupes(t *testing.T) {
	bus := events.New()
	tr := config.NewTranslator("en")
	b := NewBusBroadcaster(bus, tr)

	received := make(chan events.PresenceUpdatedEvent, 4)
	unsub := bus.Subscribe(func(e events.PresenceUpdatedEvent) {
		received <- e
	})
	defer unsub()

	if err := b.Push(KeywordOnline); err != nil {
		t.Fatalf("Push: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Keyword != KeywordOnline {
			t.Errorf("keyword = %q", ev.Keyword)
		}
		if ev.Text != "Server is online" {
			t.Errorf("text = %q", ev.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	// Same keyword again: no event
	if err := b.Push(KeywordOnline); err != nil {
		t.Fatalf("Push: %v", err)
	}
	select {
	case ev := <-received:
		t.Fatalf("duplicate push published %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	if b.Current() != KeywordOnline {
		t.Errorf("Current = %q", b.Current())
	}
}

func TestSynchronizerTracksStateChanges(t *testing.T) {
	source := &fakeSource{}
	source.set(supervisor.Status{Lifecycle: supervisor.LifecycleOffline})
	rec := &recordingBroadcaster{}

	syncer := NewSynchronizer(source, rec, 20*time.Millisecond)
	syncer.Start()
	defer syncer.Stop()

	waitFor := func(keyword string) {
		t.Helper()
		deadline := time.After(time.Second)
		for rec.Current() != keyword {
			select {
			case <-deadline:
				t.Fatalf("broadcaster never reached %q, pushes: %v", keyword, rec.all())
			case <-time.After(5 * time.Millisecond):
			}
		}
	}

	waitFor(KeywordOffline)

	source.set(supervisor.Status{Lifecycle: supervisor.LifecycleOnline, PID: 1})
	waitFor(KeywordOnline)

	code := 1
	source.set(supervisor.Status{Lifecycle: supervisor.LifecycleError, LastExitCode: &code, InError: true})
	waitFor(KeywordError)
}

func TestSynchronizerSwallowsBroadcastErrors(t *testing.T) {
	source := &fakeSource{}
	source.set(supervisor.Status{Lifecycle: supervisor.LifecycleOffline})
	rec := &recordingBroadcaster{err: errPush}

	syncer := NewSynchronizer(source, rec, 10*time.Millisecond)
	syncer.Start()

	// A failing broadcaster must not crash or wedge the loop
	time.Sleep(50 * time.Millisecond)
	syncer.Stop()
}

var errPush = &pushError{}

type pushError struct{}

func (*pushError) Error() string { return "push failed" }
