package actor

import (
	"sync"
	"time"
)

// TimerHandle cancels a scheduled send.
type TimerHandle struct {
	cancel func()
}

// Cancel stops the scheduled message from firing again. Safe to call more
// than once, and safe to call after the timer has already fired.
func (h TimerHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// timerService is the single global timer service (spec §4.6): one
// goroutine per scheduled/repeating send, parked on time.Timer/time.Ticker,
// which produces a fresh copy of the message on each fire and sends it via
// the normal dispatcher path (System.Send), never touching the destination
// cell directly.
type timerService struct {
	system *System

	mu      sync.Mutex
	active  map[*timerEntry]struct{}
	stopped bool
}

type timerEntry struct {
	stop chan struct{}
	once sync.Once
}

func newTimerService(s *System) *timerService {
	return &timerService{system: s, active: make(map[*timerEntry]struct{})}
}

func (t *timerService) Name() string { return "timer" }

func (t *timerService) Start() error { return nil }

// Stop cancels every outstanding timer. Called during System shutdown.
func (t *timerService) Stop() {
	t.mu.Lock()
	t.stopped = true
	entries := make([]*timerEntry, 0, len(t.active))
	for e := range t.active {
		entries = append(entries, e)
	}
	t.mu.Unlock()
	for _, e := range entries {
		e.once.Do(func() { close(e.stop) })
	}
}

func (t *timerService) track(e *timerEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.active[e] = struct{}{}
	return true
}

func (t *timerService) untrack(e *timerEntry) {
	t.mu.Lock()
	delete(t.active, e)
	t.mu.Unlock()
}

// ScheduleOnce sends msg to dest after delay. If alias is non-empty the
// destination is resolved by alias at fire time; otherwise msg.Dest is
// overwritten with dest.
func (t *timerService) ScheduleOnce(msg Message, dest Identity, alias string, delay time.Duration) TimerHandle {
	entry := &timerEntry{stop: make(chan struct{})}
	if !t.track(entry) {
		return TimerHandle{cancel: func() {}}
	}
	timer := time.NewTimer(delay)
	go func() {
		defer t.untrack(entry)
		select {
		case <-timer.C:
			t.fire(msg, dest, alias)
		case <-entry.stop:
			timer.Stop()
		}
	}()
	return TimerHandle{cancel: func() {
		entry.once.Do(func() { close(entry.stop) })
	}}
}

// ScheduleAtFixedRate sends msg to dest after initialDelay, then every
// period thereafter, until cancelled.
func (t *timerService) ScheduleAtFixedRate(msg Message, dest Identity, alias string, initialDelay, period time.Duration) TimerHandle {
	entry := &timerEntry{stop: make(chan struct{})}
	if !t.track(entry) {
		return TimerHandle{cancel: func() {}}
	}
	go func() {
		defer t.untrack(entry)
		timer := time.NewTimer(initialDelay)
		defer timer.Stop()
		for {
			select {
			case <-timer.C:
				t.fire(msg, dest, alias)
				timer.Reset(period)
			case <-entry.stop:
				return
			}
		}
	}()
	return TimerHandle{cancel: func() {
		entry.once.Do(func() { close(entry.stop) })
	}}
}

func (t *timerService) fire(msg Message, dest Identity, alias string) {
	fresh := msg
	if alias != "" {
		t.system.sendViaAlias(fresh, alias)
		return
	}
	fresh.Dest = dest
	t.system.send(fresh)
}
