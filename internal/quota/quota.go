package quota

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cron "github.com/robfig/cron/v3"
)

// ErrRateLimitExceeded is returned by Admit when either ceiling is reached.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// window is the length of the short rolling window. It restarts only once
// strictly more than window has elapsed since it opened.
const window = time.Second

// Limits holds the admission ceilings.
type Limits struct {
	PerSecond int
	PerMonth  int
}

// DefaultLimits returns the stock ceilings: one call per second and
// fifteen thousand per month.
func DefaultLimits() Limits {
	return Limits{PerSecond: 1, PerMonth: 15000}
}

// State is a point-in-time copy of the counters.
type State struct {
	SecondCount int
	MonthCount  int
	WindowStart time.Time
	// NextMonthlyReset is zero when no rollover schedule is configured.
	NextMonthlyReset time.Time
}

// Governor admits or rejects calls against a per-second window and a monthly
// ceiling. The month counter only resets when a rollover schedule is set;
// without one it grows for the lifetime of the process.
type Governor struct {
	mu     sync.Mutex
	limits Limits
	now    func() time.Time
	reset  cron.Schedule

	secondCount int
	monthCount  int
	windowStart time.Time
	nextReset   time.Time
}

// Option configures a Governor.
type Option func(*Governor)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

// WithMonthlyReset zeroes the month counter on the first Admit at or after
// each instant produced by the schedule. A nil schedule keeps the default
// behavior.
func WithMonthlyReset(s cron.Schedule) Option {
	return func(g *Governor) { g.reset = s }
}

// New builds a Governor. Non-positive limits fall back to DefaultLimits.
func New(limits Limits, opts ...Option) *Governor {
	def := DefaultLimits()
	if limits.PerSecond <= 0 {
		limits.PerSecond = def.PerSecond
	}
	if limits.PerMonth <= 0 {
		limits.PerMonth = def.PerMonth
	}
	g := &Governor{limits: limits, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	g.windowStart = g.now()
	if g.reset != nil {
		g.nextReset = g.reset.Next(g.windowStart)
	}
	return g
}

// Admit records one call or fails with ErrRateLimitExceeded. A rejected call
// leaves the counters untouched.
func (g *Governor) Admit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.windowStart) > window {
		g.secondCount = 0
		g.windowStart = now
	}
	if g.reset != nil && !g.nextReset.IsZero() && !now.Before(g.nextReset) {
		g.monthCount = 0
		g.nextReset = g.reset.Next(now)
	}
	if g.secondCount >= g.limits.PerSecond || g.monthCount >= g.limits.PerMonth {
		return ErrRateLimitExceeded
	}
	g.secondCount++
	g.monthCount++
	return nil
}

// Limits returns the configured ceilings.
func (g *Governor) Limits() Limits {
	return g.limits
}

// Snapshot returns the current counters.
func (g *Governor) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{
		SecondCount:      g.secondCount,
		MonthCount:       g.monthCount,
		WindowStart:      g.windowStart,
		NextMonthlyReset: g.nextReset,
	}
}

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseResetSchedule parses a standard five-field cron expression or a
// descriptor such as "@monthly". An empty expression yields a nil schedule.
func ParseResetSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	s, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse monthly reset %q: %w", expr, err)
	}
	return s, nil
}
