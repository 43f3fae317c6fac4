package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"

	"github.com/stretchr/testify/require"
)

var (
	alice = domain.PlayerProfile{Name: "Alice", Avatar: "🚀", AvatarColor: "#6366f1"}
	bob   = domain.PlayerProfile{Name: "Bob", Avatar: "🤖", AvatarColor: "#10b981"}
	cara  = domain.PlayerProfile{Name: "Cara", Avatar: "🦊", AvatarColor: "#f59e0b"}
	dan   = domain.PlayerProfile{Name: "Dan", Avatar: "🎨", AvatarColor: "#ec4899"}
)

// fakeClock only moves when told to and fires timers on Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs every live timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// FireLate runs every timer callback, even stopped ones, as a timer that had already
// started firing when it was cancelled would.
func (c *fakeClock) FireLate() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

func (c *fakeClock) Timers() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTimer(nil), c.timers...)
}

type sentEvent struct {
	recipients []string
	event      domain.Event
}

// recorder is an app.Broadcaster that keeps everything it is asked to send.
type recorder struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (r *recorder) Send(recipients []string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEvent{recipients: append([]string(nil), recipients...), event: event})
}

func (r *recorder) Of(typ domain.EventType) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, s := range r.sent {
		if s.event.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

func (r *recorder) Last(t *testing.T, typ domain.EventType) sentEvent {
	t.Helper()
	events := r.Of(typ)
	require.NotEmpty(t, events, "no %s event sent", typ)
	return events[len(events)-1]
}

// stubSource returns a fixed batch, optionally blocking until released.
type stubSource struct {
	mu        sync.Mutex
	questions []domain.Question
	err       error
	calls     atomic.Int32
	entered   chan struct{}
	release   chan struct{}
}

func newStubSource(n int) *stubSource {
	return &stubSource{questions: sampleQuestions(n)}
}

func (s *stubSource) Fetch(ctx context.Context, _, _ string, count int) ([]domain.Question, error) {
	s.calls.Add(1)
	s.mu.Lock()
	entered, release := s.entered, s.release
	questions, err := s.questions, s.err
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *stubSource) Block() (entered <-chan struct{}, release chan<- struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{}, 8)
	s.release = make(chan struct{})
	return s.entered, s.release
}

func (s *stubSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func sampleQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			Text:          fmt.Sprintf("Question %d?", i),
			Options:       []string{"A) one", "B) two", "C) three", "D) four"},
			CorrectOption: "B) two",
			Explanation:   "Because two.",
		}
	}
	return out
}

// fixedCodes hands out the given codes in order, then falls back to random ones.
func fixedCodes(codes ...string) app.CodeGenerator {
	var mu sync.Mutex
	random := app.RandomCodes(app.DefaultCodeLength)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return random()
		}
		code := codes[0]
		codes = codes[1:]
		return code
	}
}

type harness struct {
	svc    *app.GameService
	store  *memory.RoomStore
	clock  *fakeClock
	events *recorder
	source *stubSource
}

func newHarness(t *testing.T, codes app.CodeGenerator, opts ...app.Option) *harness {
	t.Helper()
	h := &harness{
		store:  memory.NewRoomStore(codes),
		clock:  newFakeClock(),
		events: &recorder{},
		source: newStubSource(20),
	}
	opts = append([]app.Option{app.WithClock(h.clock)}, opts...)
	h.svc = app.NewGameService(h.store, h.source, h.events, opts...)
	return h
}

// room creates a room hosted by "p1" and seats the other ids in order.
func (h *harness) room(t *testing.T, others ...string) string {
	t.Helper()
	ctx := context.Background()
	view, err := h.svc.Create(ctx, "p1", alice)
	require.NoError(t, err)
	profiles := []domain.PlayerProfile{bob, cara, dan, alice}
	for i, id := range others {
		_, err := h.svc.Join(ctx, id, view.Code, profiles[i%len(profiles)])
		require.NoError(t, err)
	}
	return view.Code
}

// playing creates a room like room and starts its round.
func (h *harness) playing(t *testing.T, others ...string) string {
	t.Helper()
	code := h.room(t, others...)
	require.NoError(t, h.svc.Start(context.Background(), "p1", code, "science", "simple"))
	return code
}
