package persist

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCooldown is the minimum spacing between two durable writes of the
// same document.
const DefaultCooldown = time.Second

var ErrNoWriter = errors.New("persist: coalescer has no write function")

type Clock interface {
	Now() time.Time
}

// Timer arms one-shot callbacks. Implementations must run fn on the same
// logical thread that calls RequestSave.
type Timer interface {
	ScheduleOnce(d time.Duration, fn func() error) error
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type State int

const (
	Idle State = iota
	PendingFlush
)

func (s State) String() string {
	if s == PendingFlush {
		return "PendingFlush"
	}
	return "Idle"
}

type Options struct {
	Name     string
	Cooldown time.Duration
	Clock    Clock
	Timer    Timer
	Logger   *slog.Logger
}

// Coalescer turns bursts of save requests for one document into at most one
// write per cooldown window. It is not safe for concurrent use.
type Coalescer struct {
	name      string
	cooldown  time.Duration
	clock     Clock
	timer     Timer
	write     func() error
	logger    *slog.Logger
	state     State
	lastWrite time.Time
	writes    int
	gen       uint64 // bumped per write; older timers are stale
}

// NewCoalescer builds a coalescer around write, which must serialise the
// current in-memory document each time it is called.
func NewCoalescer(write func() error, opts Options) *Coalescer {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "document"
	}
	return &Coalescer{
		name:     opts.Name,
		cooldown: opts.Cooldown,
		clock:    opts.Clock,
		timer:    opts.Timer,
		write:    write,
		logger:   opts.Logger.With("document", opts.Name),
	}
}

func (c *Coalescer) State() State { return c.state }

// Writes reports how many durable writes have been attempted.
func (c *Coalescer) Writes() int { return c.writes }

// LastWrite is the time of the last successful write; zero before the first.
func (c *Coalescer) LastWrite() time.Time { return c.lastWrite }

// RequestSave records that the document changed. Outside the cooldown the
// document is written immediately; inside it a single deferred write is
// scheduled for the end of the window.
func (c *Coalescer) RequestSave() error {
	if c.state == PendingFlush {
		return nil
	}
	now := c.clock.Now()
	elapsed := now.Sub(c.lastWrite)
	if c.lastWrite.IsZero() || elapsed >= c.cooldown || c.timer == nil {
		return c.flushNow()
	}

	c.state = PendingFlush
	remaining := c.cooldown - elapsed
	gen := c.gen
	if err := c.timer.ScheduleOnce(remaining, func() error { return c.onTimer(gen) }); err != nil {
		// Without a timer the change must not be lost.
		c.logger.Warn("schedule save failed, writing now", "error", err)
		c.state = Idle
		return c.flushNow()
	}
	c.logger.Debug("save deferred", "in", remaining)
	return nil
}

// Flush writes a pending document immediately. It does nothing when Idle.
func (c *Coalescer) Flush() error {
	if c.state != PendingFlush {
		return nil
	}
	return c.flushNow()
}

func (c *Coalescer) onTimer(gen uint64) error {
	if c.state != PendingFlush || gen != c.gen {
		return nil
	}
	return c.flushNow()
}

func (c *Coalescer) flushNow() error {
	c.state = Idle
	c.gen++
	if c.write == nil {
		return ErrNoWriter
	}
	c.writes++
	if err := c.write(); err != nil {
		c.logger.Error("save failed", "error", err)
		return fmt.Errorf("persist: save %s: %w", c.name, err)
	}
	c.lastWrite = c.clock.Now()
	c.logger.Debug("saved")
	return nil
}
