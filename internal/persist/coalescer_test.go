package persist

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type scheduled struct {
	delay time.Duration
	fn    func() error
}

type fakeTimer struct {
	armed []scheduled
	err   error
}

func (f *fakeTimer) ScheduleOnce(d time.Duration, fn func() error) error {
	if f.err != nil {
		return f.err
	}
	f.armed = append(f.armed, scheduled{delay: d, fn: fn})
	return nil
}

func (f *fakeTimer) fireAll(t *testing.T) {
	t.Helper()
	armed := f.armed
	f.armed = nil
	for _, s := range armed {
		if err := s.fn(); err != nil {
			t.Fatalf("timer callback: %v", err)
		}
	}
}

type document struct {
	value   int
	written []int
	fail    error
}

func (d *document) write() error {
	if d.fail != nil {
		return d.fail
	}
	d.written = append(d.written, d.value)
	return nil
}

func newTestCoalescer(doc *document, clock *fakeClock, timer *fakeTimer) *Coalescer {
	return NewCoalescer(doc.write, Options{
		Name:     "test",
		Cooldown: time.Second,
		Clock:    clock,
		Timer:    timer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestFirstRequestWritesImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{value: 1}
	c := newTestCoalescer(doc, clock, timer)

	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}
	if len(doc.written) != 1 || c.State() != Idle {
		t.Fatalf("expected immediate write and Idle, got writes=%v state=%s", doc.written, c.State())
	}
	if len(timer.armed) != 0 {
		t.Fatalf("expected no timer, got %d", len(timer.armed))
	}
}

func TestBurstCoalescesIntoOneWriteWithFinalState(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{}
	c := newTestCoalescer(doc, clock, timer)

	doc.value = 1
	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}

	for i := 2; i <= 10; i++ {
		clock.Advance(50 * time.Millisecond)
		doc.value = i
		if err := c.RequestSave(); err != nil {
			t.Fatalf("request save %d: %v", i, err)
		}
	}
	if c.State() != PendingFlush {
		t.Fatalf("expected PendingFlush, got %s", c.State())
	}
	if len(timer.armed) != 1 {
		t.Fatalf("expected exactly one armed timer, got %d", len(timer.armed))
	}
	if got := timer.armed[0].delay; got != 950*time.Millisecond {
		t.Fatalf("expected remaining cooldown 950ms, got %s", got)
	}

	clock.Advance(950 * time.Millisecond)
	timer.fireAll(t)

	if len(doc.written) != 2 || doc.written[1] != 10 {
		t.Fatalf("expected deferred write of final state, got %v", doc.written)
	}
	if c.State() != Idle {
		t.Fatalf("expected Idle after flush, got %s", c.State())
	}
}

func TestRequestAfterCooldownWritesImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{}
	c := newTestCoalescer(doc, clock, timer)

	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}
	clock.Advance(time.Second)
	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}
	if len(doc.written) != 2 || len(timer.armed) != 0 {
		t.Fatalf("expected two immediate writes, got writes=%v timers=%d", doc.written, len(timer.armed))
	}
}

func TestFlushWritesPendingAndDisarmsTimer(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{}
	c := newTestCoalescer(doc, clock, timer)

	_ = c.RequestSave()
	doc.value = 7
	_ = c.RequestSave()
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(doc.written) != 2 || doc.written[1] != 7 {
		t.Fatalf("expected flushed write, got %v", doc.written)
	}

	timer.fireAll(t)
	if len(doc.written) != 2 {
		t.Fatalf("expected late timer to be a no-op, got %v", doc.written)
	}
	if err := c.Flush(); err != nil || len(doc.written) != 2 {
		t.Fatalf("expected idle flush to do nothing, got err=%v writes=%v", err, doc.written)
	}
}

func TestTimerArmedBeforeFlushDoesNotFireIntoNextWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{value: 1}
	c := newTestCoalescer(doc, clock, timer)

	_ = c.RequestSave()
	clock.Advance(200 * time.Millisecond)
	doc.value = 2
	_ = c.RequestSave()
	clock.Advance(100 * time.Millisecond)
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	stale := timer.armed[0]
	timer.armed = nil

	clock.Advance(100 * time.Millisecond)
	doc.value = 3
	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}
	if len(timer.armed) != 1 {
		t.Fatalf("expected one live timer, got %d", len(timer.armed))
	}
	if got := timer.armed[0].delay; got != 900*time.Millisecond {
		t.Fatalf("expected remaining cooldown 900ms, got %s", got)
	}

	clock.Advance(600 * time.Millisecond)
	if err := stale.fn(); err != nil {
		t.Fatalf("stale timer: %v", err)
	}
	if len(doc.written) != 2 || c.State() != PendingFlush {
		t.Fatalf("expected stale timer to be a no-op, got writes=%v state=%s", doc.written, c.State())
	}

	clock.Advance(300 * time.Millisecond)
	timer.fireAll(t)
	if len(doc.written) != 3 || doc.written[2] != 3 {
		t.Fatalf("expected live timer to write final state, got %v", doc.written)
	}
	if c.State() != Idle {
		t.Fatalf("expected Idle, got %s", c.State())
	}
}

func TestWriteFailureReturnsToIdleAndRetries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	boom := errors.New("disk full")
	doc := &document{fail: boom}
	c := newTestCoalescer(doc, clock, timer)

	err := c.RequestSave()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
	if c.State() != Idle || !c.LastWrite().IsZero() {
		t.Fatalf("expected Idle with no recorded write, got %s %v", c.State(), c.LastWrite())
	}

	doc.fail = nil
	doc.value = 3
	if err := c.RequestSave(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(doc.written) != 1 || doc.written[0] != 3 {
		t.Fatalf("expected retry to write, got %v", doc.written)
	}
	if c.Writes() != 2 {
		t.Fatalf("expected two attempts, got %d", c.Writes())
	}
}

func TestScheduleFailureFallsBackToImmediateWrite(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	timer := &fakeTimer{}
	doc := &document{}
	c := newTestCoalescer(doc, clock, timer)

	_ = c.RequestSave()
	timer.err = errors.New("engine stopped")
	clock.Advance(10 * time.Millisecond)
	if err := c.RequestSave(); err != nil {
		t.Fatalf("request save: %v", err)
	}
	if len(doc.written) != 2 || c.State() != Idle {
		t.Fatalf("expected fallback write, got writes=%v state=%s", doc.written, c.State())
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := NewCoalescer(nil, Options{})
	if c.cooldown != DefaultCooldown {
		t.Fatalf("expected default cooldown, got %s", c.cooldown)
	}
	if err := c.RequestSave(); !errors.Is(err, ErrNoWriter) {
		t.Fatalf("expected ErrNoWriter, got %v", err)
	}
}
