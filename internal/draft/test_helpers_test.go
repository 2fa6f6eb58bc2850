package draft

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func mustCaseID(t *testing.T, value string) CaseID {
	t.Helper()
	id, err := NewCaseID(value)
	if err != nil {
		t.Fatalf("unexpected case id error: %v", err)
	}
	return id
}

// fakeClock hands out a controllable wall time.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeScheduler collects scheduled callbacks and fires them when advanced
// past their due time.
type fakeScheduler struct {
	mu      sync.Mutex
	elapsed time.Duration
	entries []*fakeTimer
}

type fakeTimer struct {
	mu      sync.Mutex
	due     time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) Schedule(delay time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{due: s.elapsed + delay, fn: fn}
	s.entries = append(s.entries, timer)
	return timer
}

func (t *fakeTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Advance moves the fake clock forward, stepping through every due timer in
// order so callbacks that reschedule themselves fire repeatedly inside one
// window.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.elapsed + d
	s.mu.Unlock()

	for {
		timer := s.nextDue(target)
		if timer == nil {
			break
		}
		timer.fn()
	}

	s.mu.Lock()
	s.elapsed = target
	s.mu.Unlock()
}

// nextDue picks the earliest unfired timer due at or before target, marks it
// fired, and moves the fake clock to its due time.
func (s *fakeScheduler) nextDue(target time.Duration) *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest *fakeTimer
	for _, timer := range s.entries {
		timer.mu.Lock()
		ready := !timer.stopped && !timer.fired && timer.due <= target
		due := timer.due
		timer.mu.Unlock()
		if !ready {
			continue
		}
		if earliest == nil || due < earliest.due {
			earliest = timer
		}
	}
	if earliest == nil {
		return nil
	}
	earliest.mu.Lock()
	earliest.fired = true
	earliest.mu.Unlock()
	if earliest.due > s.elapsed {
		s.elapsed = earliest.due
	}
	return earliest
}

// seqIDProvider issues deterministic identifiers.
type seqIDProvider struct {
	mu   sync.Mutex
	next int
}

func (p *seqIDProvider) NewID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return fmt.Sprintf("id-%d", p.next), nil
}

// memStore is an in-memory Store recording every persisted state.
type memStore struct {
	mu     sync.Mutex
	states map[CaseID]PersistedDraftState
	writes int
}

func newMemStore() *memStore {
	return &memStore{states: make(map[CaseID]PersistedDraftState)}
}

func (m *memStore) Load(ctx context.Context, caseID CaseID) (*PersistedDraftState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[caseID]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

func (m *memStore) Persist(ctx context.Context, caseID CaseID, state PersistedDraftState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[caseID] = state
	m.writes++
	return nil
}

func (m *memStore) stateFor(caseID CaseID) (PersistedDraftState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[caseID]
	return state, ok
}

// captureChannel records published messages and feeds an injectable stream.
type captureChannel struct {
	mu        sync.Mutex
	published []SyncMessage
	stream    chan SyncMessage
}

func newCaptureChannel() *captureChannel {
	return &captureChannel{stream: make(chan SyncMessage, 16)}
}

func (c *captureChannel) Publish(ctx context.Context, message SyncMessage) error {
	c.mu.Lock()
	c.published = append(c.published, message)
	c.mu.Unlock()
	return nil
}

func (c *captureChannel) Subscribe(ctx context.Context, caseID CaseID) (<-chan SyncMessage, func()) {
	var once sync.Once
	return c.stream, func() {
		once.Do(func() { close(c.stream) })
	}
}

func (c *captureChannel) messagesOfType(messageType MessageType) []SyncMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []SyncMessage
	for _, message := range c.published {
		if message.Type == messageType {
			matched = append(matched, message)
		}
	}
	return matched
}

type sessionFixture struct {
	session   *Session
	store     *memStore
	channel   *captureChannel
	clock     *fakeClock
	scheduler *fakeScheduler
}

func newSessionFixture(t *testing.T, initialDraft string) *sessionFixture {
	t.Helper()
	fixture := &sessionFixture{
		store:     newMemStore(),
		channel:   newCaptureChannel(),
		clock:     newFakeClock(),
		scheduler: newFakeScheduler(),
	}

	session, err := NewSession(SessionConfig{
		CaseID:       mustCaseID(t, "case-1"),
		ClientID:     ClientID("client-local"),
		InitialDraft: initialDraft,
		Store:        fixture.store,
		Channel:      fixture.channel,
		Clock:        fixture.clock.Now,
		Scheduler:    fixture.scheduler,
		IDProvider:   &seqIDProvider{},
	})
	if err != nil {
		t.Fatalf("unexpected session error: %v", err)
	}
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	fixture.session = session
	t.Cleanup(session.Close)
	return fixture
}
