// Package steering drives the demo mode: a background sweeper that walks the
// combined steering delay back and forth and posts each step to the UI.
package steering

import (
	"context"
	"math"
	"sync"
	"time"

	"beamsim.klederson.com/internal/config"
	tea "github.com/charmbracelet/bubbletea"
)

// DelayMsg carries the next combined delay in degrees.
type DelayMsg struct {
	Deg float64
}

// Sender receives sweep steps. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Sweeper emits a sinusoidal combined-delay sweep.
type Sweeper struct {
	Period   time.Duration
	Span     float64 // peak delay in degrees
	Interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewSweeper creates a sweeper with the demo defaults.
func NewSweeper() *Sweeper {
	return &Sweeper{
		Period:   config.DemoSweepPeriod,
		Span:     config.DemoSweepSpan,
		Interval: config.DemoInterval,
	}
}

// At returns the delay the sweep reaches after elapsed.
func (s *Sweeper) At(elapsed time.Duration) float64 {
	if s.Period <= 0 {
		return 0
	}
	phase := 2 * math.Pi * elapsed.Seconds() / s.Period.Seconds()
	return s.Span * math.Sin(phase)
}

// Start begins the sweep. Starting a running sweeper is a no-op.
func (s *Sweeper) Start(p Sender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.loop(ctx, p)
	return nil
}

// Running reports whether the sweep is active.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) loop(ctx context.Context, p Sender) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if p == nil || ctx.Err() != nil {
				continue
			}
			p.Send(DelayMsg{Deg: s.At(now.Sub(start))})
		}
	}
}

// Stop cancels the sweep without waiting for the loop. It runs inside the
// program's update loop, which a pending Send may be blocked on, so at most
// one step already in flight can still arrive.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	s.cancel()
}
