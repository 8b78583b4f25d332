package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/fluxel/pattern"
	"github.com/lixenwraith/fluxel/render"
	"github.com/lixenwraith/fluxel/telemetry"
	"github.com/lixenwraith/fluxel/terminal"
	"github.com/lixenwraith/fluxel/theme"
)

const (
	// pollInterval is the scheduling granularity: the loop wakes at this
	// rate to check whether the next frame is due
	pollInterval = time.Millisecond

	MinFPS = 1
	MaxFPS = 120
)

// Scheduler drives the frame cycle: clear, pattern render, emit, swap.
// Frames are phase-locked to the target interval; when a frame runs late
// the next deadline keeps the original cadence instead of drifting.
type Scheduler struct {
	emitter *render.Emitter
	monitor *telemetry.Monitor
	clock   TimeSource
	logger  *log.Logger

	resizeCh <-chan terminal.ResizeEvent

	mu       sync.RWMutex
	pat      pattern.Pattern
	th       *theme.Theme
	fps      int
	interval time.Duration
	paused   bool
	pausedAt time.Time

	patternStart time.Time // Zero point for pattern elapsed time
	lastFrame    time.Time // Phase-locked previous frame instant

	mouseX      int
	mouseY      int
	mouseActive bool

	afterRender func()

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewScheduler creates a scheduler over an initialized emitter.
// resizeCh receives terminal size changes; delivery is latest-wins so the
// loop only ever reacts to the newest geometry.
func NewScheduler(
	emitter *render.Emitter,
	monitor *telemetry.Monitor,
	clock TimeSource,
	logger *log.Logger,
	resizeCh <-chan terminal.ResizeEvent,
	targetFPS int,
) *Scheduler {
	s := &Scheduler{
		emitter:  emitter,
		monitor:  monitor,
		clock:    clock,
		logger:   logger,
		resizeCh: resizeCh,
		th:       theme.Default(),
		stopChan: make(chan struct{}),
	}
	s.SetFPS(targetFPS)
	return s
}

// Start launches the frame loop. A scheduler runs at most once; after
// Stop it cannot be restarted.
func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}

	now := s.clock.Now()
	s.mu.Lock()
	s.lastFrame = now
	s.patternStart = now
	s.mu.Unlock()

	s.wg.Add(1)
	Go(s.loop)
	return nil
}

// Stop halts the frame loop and waits for the in-flight frame
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.running.CompareAndSwap(true, false) {
			close(s.stopChan)
			s.wg.Wait()
		}
	})
}

// Running reports whether the frame loop is active
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case ev := <-s.resizeCh:
			s.handleResize(ev)
			continue
		default:
		}

		sleep := s.tick(s.clock.Now())

		timer.Reset(sleep)
		select {
		case <-timer.C:
		case ev := <-s.resizeCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			s.handleResize(ev)
		case <-s.stopChan:
			return
		}
	}
}

// tick makes one scheduling decision at the given instant and returns
// how long to sleep before the next one
func (s *Scheduler) tick(now time.Time) time.Duration {
	s.mu.RLock()
	paused := s.paused
	interval := s.interval
	last := s.lastFrame
	s.mu.RUnlock()

	if paused {
		// The grid is frozen but overlay writers (status line, toasts)
		// still mutate the buffer; flush their rows so the HUD stays
		// live. With no grid changes the diff covers overlay rows only.
		if _, err := s.emitter.Emit(); err != nil {
			s.logger.Error("overlay flush failed", "error", err)
		}
		// Coarse idle; input and resize still interrupt the sleep
		return interval
	}

	delta := now.Sub(last)
	if delta < interval {
		return pollInterval
	}

	s.runFrame(now)

	s.mu.Lock()
	// Phase lock: subtract the remainder so the next deadline stays on
	// the original interval grid rather than drifting by the overshoot
	s.lastFrame = now.Add(-(delta % interval))
	s.mu.Unlock()

	return pollInterval
}

// runFrame executes one frame cycle
func (s *Scheduler) runFrame(now time.Time) {
	s.monitor.StartFrame(now)

	s.mu.RLock()
	p := s.pat
	th := s.th
	start := s.patternStart
	mx, my, mact := s.mouseX, s.mouseY, s.mouseActive
	hook := s.afterRender
	s.mu.RUnlock()

	buf := s.emitter.Buffer()
	w, h := buf.Size()

	updStart := s.clock.Now()
	buf.Clear()
	if p != nil {
		p.Render(pattern.Context{
			Elapsed:     now.Sub(start),
			Width:       w,
			Height:      h,
			MouseX:      mx,
			MouseY:      my,
			MouseActive: mact,
			Theme:       th,
		}, buf)
	}
	s.monitor.RecordUpdate(s.clock.Now().Sub(updStart))

	emitStart := s.clock.Now()
	cells, err := s.emitter.Emit()
	s.monitor.RecordEmit(s.clock.Now().Sub(emitStart), cells)
	if err != nil {
		s.logger.Error("frame emit failed", "error", err)
	}

	buf.Swap()

	if hook != nil {
		hook()
	}
}

func (s *Scheduler) handleResize(ev terminal.ResizeEvent) {
	s.emitter.HandleResize(ev.Width, ev.Height)

	s.mu.RLock()
	p := s.pat
	s.mu.RUnlock()
	if r, ok := p.(pattern.Resettable); ok {
		r.Reset()
	}

	s.logger.Debug("terminal resized", "width", ev.Width, "height", ev.Height)
}

// ============================================================================
// Runtime Controls
// ============================================================================

// SetPattern swaps the active pattern. The incoming pattern starts from
// a clean state and its elapsed clock restarts at zero.
func (s *Scheduler) SetPattern(p pattern.Pattern) {
	if r, ok := p.(pattern.Resettable); ok {
		r.Reset()
	}

	s.mu.Lock()
	s.pat = p
	s.patternStart = s.clock.Now()
	if s.paused {
		s.pausedAt = s.patternStart
	}
	s.mu.Unlock()

	if p != nil {
		s.logger.Info("pattern switched", "pattern", p.Name())
	}
}

// Pattern returns the active pattern
func (s *Scheduler) Pattern() pattern.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pat
}

// SetTheme swaps the color ramp used by the active pattern
func (s *Scheduler) SetTheme(th *theme.Theme) {
	if th == nil {
		return
	}
	s.mu.Lock()
	s.th = th
	s.mu.Unlock()
	s.logger.Info("theme switched", "theme", th.Name())
}

// Theme returns the active theme
func (s *Scheduler) Theme() *theme.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.th
}

// SetFPS changes the target frame rate, clamped to [MinFPS, MaxFPS].
// Telemetry retargets without losing its sample window. Returns the rate
// actually applied.
func (s *Scheduler) SetFPS(fps int) int {
	if fps < MinFPS {
		fps = MinFPS
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}

	s.mu.Lock()
	s.fps = fps
	s.interval = time.Second / time.Duration(fps)
	s.mu.Unlock()

	s.monitor.SetTargetFPS(fps)
	s.logger.Debug("fps changed", "fps", fps)
	return fps
}

// FPS returns the target frame rate
func (s *Scheduler) FPS() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fps
}

// AdjustFPS shifts the target rate by delta and returns the new rate
func (s *Scheduler) AdjustFPS(delta int) int {
	return s.SetFPS(s.FPS() + delta)
}

// SetPaused freezes or resumes frame production. Pattern elapsed time
// does not advance across a pause, so animations resume where they froze.
func (s *Scheduler) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused == paused {
		return
	}
	s.paused = paused

	now := s.clock.Now()
	if paused {
		s.pausedAt = now
	} else {
		s.patternStart = s.patternStart.Add(now.Sub(s.pausedAt))
		s.lastFrame = now
	}
}

// TogglePause flips the pause state and returns the new state
func (s *Scheduler) TogglePause() bool {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	s.SetPaused(!paused)
	return !paused
}

// Paused reports whether frame production is frozen
func (s *Scheduler) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetMouse updates the pointer state passed to patterns
func (s *Scheduler) SetMouse(x, y int, active bool) {
	s.mu.Lock()
	s.mouseX = x
	s.mouseY = y
	s.mouseActive = active
	s.mu.Unlock()
}

// SetAfterRender installs a hook that runs after every completed frame,
// on the scheduler goroutine. The overlay a hook draws shows up in the
// following frame.
func (s *Scheduler) SetAfterRender(fn func()) {
	s.mu.Lock()
	s.afterRender = fn
	s.mu.Unlock()
}
