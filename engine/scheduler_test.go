package engine

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lixenwraith/fluxel/pattern"
	"github.com/lixenwraith/fluxel/render"
	"github.com/lixenwraith/fluxel/telemetry"
	"github.com/lixenwraith/fluxel/terminal"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// schedConsole satisfies render.Console without a real terminal
type schedConsole struct {
	mu     sync.Mutex
	width  int
	height int
	writes int
}

func (c *schedConsole) Init(terminal.MouseMode) error { return nil }
func (c *schedConsole) Fini()                         {}
func (c *schedConsole) ColorMode() terminal.ColorMode { return terminal.ColorMode256 }
func (c *schedConsole) Clear() error                  { return nil }

func (c *schedConsole) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *schedConsole) setSize(w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = w
	c.height = h
}

func (c *schedConsole) WriteFrame(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	return nil
}

// recordingPattern captures the contexts it was rendered with
type recordingPattern struct {
	mu       sync.Mutex
	contexts []pattern.Context
	resets   int
}

func (p *recordingPattern) Name() string { return "recording" }

func (p *recordingPattern) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
}

func (p *recordingPattern) Render(ctx pattern.Context, buf *render.FrameBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contexts = append(p.contexts, ctx)
	buf.SetRune(0, 0, 'x', terminal.RGB{R: 255})
}

func (p *recordingPattern) renders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.contexts)
}

func (p *recordingPattern) lastCtx() pattern.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.contexts) == 0 {
		return pattern.Context{}
	}
	return p.contexts[len(p.contexts)-1]
}

func newTestScheduler(t *testing.T, fps int) (*Scheduler, *MockTimeProvider, *recordingPattern, *schedConsole) {
	t.Helper()

	con := &schedConsole{width: 20, height: 5}
	em := render.NewEmitter(con)
	if err := em.Init(terminal.MouseModeNone); err != nil {
		t.Fatalf("emitter Init() error = %v", err)
	}

	clock := NewMockTimeProvider(t0)
	s := NewScheduler(em, telemetry.NewMonitor(fps), clock, log.New(io.Discard), nil, fps)

	rec := &recordingPattern{}
	s.SetPattern(rec)
	rec.mu.Lock()
	rec.resets = 0 // SetPattern resets the incoming pattern; not under test here
	rec.mu.Unlock()

	// Prime the loop state the way Start does, without the goroutine
	s.mu.Lock()
	s.lastFrame = t0
	s.patternStart = t0
	s.mu.Unlock()

	return s, clock, rec, con
}

// ============================================================================
// Frame Timing
// ============================================================================

func TestNoFrameBeforeInterval(t *testing.T) {
	s, _, rec, _ := newTestScheduler(t, 30)

	for _, offset := range []time.Duration{
		5 * time.Millisecond,
		20 * time.Millisecond,
		33 * time.Millisecond, // Still under 33.33ms
	} {
		if sleep := s.tick(t0.Add(offset)); sleep != pollInterval {
			t.Errorf("tick(+%v) sleep = %v, want poll interval", offset, sleep)
		}
	}
	if rec.renders() != 0 {
		t.Errorf("renders = %d, want 0 before the interval elapses", rec.renders())
	}
}

func TestFrameFiresOnInterval(t *testing.T) {
	s, _, rec, con := newTestScheduler(t, 30)

	s.tick(t0.Add(34 * time.Millisecond))

	if rec.renders() != 1 {
		t.Fatalf("renders = %d, want 1", rec.renders())
	}
	if con.writes != 1 {
		t.Errorf("console writes = %d, want 1", con.writes)
	}
}

func TestPhaseLockAbsorbsOvershoot(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)
	interval := time.Second / 30

	// Frame due at t0+33.33ms actually runs at t0+40ms; the next deadline
	// must stay on the grid, not shift to t0+40ms+interval
	s.tick(t0.Add(40 * time.Millisecond))

	s.mu.RLock()
	last := s.lastFrame
	s.mu.RUnlock()

	if want := t0.Add(interval); !last.Equal(want) {
		t.Errorf("lastFrame = %v, want grid-aligned %v", last.Sub(t0), want.Sub(t0))
	}
}

func TestCadenceOverManyFrames(t *testing.T) {
	s, _, rec, _ := newTestScheduler(t, 30)

	// Poll every millisecond like the real loop; jitter in poll arrival
	// must not change the frame count
	now := t0
	for i := 0; i < 1000; i++ {
		now = now.Add(time.Millisecond)
		s.tick(now)
	}

	// 1 second at 30 FPS
	if got := rec.renders(); got < 29 || got > 31 {
		t.Errorf("renders after 1s = %d, want 30±1", got)
	}
}

func TestStallProducesSingleFrame(t *testing.T) {
	s, _, rec, _ := newTestScheduler(t, 30)

	// A 500ms stall is one late frame, not 15 catch-up frames
	s.tick(t0.Add(500 * time.Millisecond))

	if rec.renders() != 1 {
		t.Errorf("renders after stall = %d, want 1", rec.renders())
	}
}

// ============================================================================
// Pause
// ============================================================================

func TestPauseStopsFrames(t *testing.T) {
	s, clock, rec, _ := newTestScheduler(t, 30)

	clock.SetTime(t0.Add(10 * time.Millisecond))
	s.SetPaused(true)

	if sleep := s.tick(t0.Add(100 * time.Millisecond)); sleep != s.interval {
		t.Errorf("paused tick sleep = %v, want interval %v", sleep, s.interval)
	}
	if rec.renders() != 0 {
		t.Errorf("renders while paused = %d, want 0", rec.renders())
	}
}

func TestPausedOverlayChangesStillFlush(t *testing.T) {
	s, _, rec, con := newTestScheduler(t, 30)

	s.SetPaused(true)

	// Clean buffer: paused ticks have nothing to flush
	s.tick(t0.Add(50 * time.Millisecond))
	if con.writes != 0 {
		t.Fatalf("writes with clean buffer = %d, want 0", con.writes)
	}

	// An overlay write while paused reaches the terminal on the next tick
	s.emitter.Buffer().SetOverlayText(0, 0, "HI", terminal.NeonGreen)
	s.tick(t0.Add(100 * time.Millisecond))

	if con.writes != 1 {
		t.Errorf("writes after paused overlay change = %d, want 1", con.writes)
	}
	if rec.renders() != 0 {
		t.Errorf("renders while paused = %d, want 0", rec.renders())
	}
}

func TestElapsedFrozenAcrossPause(t *testing.T) {
	s, clock, rec, _ := newTestScheduler(t, 30)

	// One frame at +40ms: elapsed 40ms
	s.tick(t0.Add(40 * time.Millisecond))
	if got := rec.lastCtx().Elapsed; got != 40*time.Millisecond {
		t.Fatalf("pre-pause elapsed = %v, want 40ms", got)
	}

	// Pause at +50ms, resume 10s later
	clock.SetTime(t0.Add(50 * time.Millisecond))
	s.SetPaused(true)
	clock.SetTime(t0.Add(10 * time.Second))
	s.SetPaused(false)

	// Next frame 40ms after resume: elapsed continues from 50ms, the
	// 10s gap never happened in pattern time
	s.tick(t0.Add(10*time.Second + 40*time.Millisecond))

	if got := rec.lastCtx().Elapsed; got != 90*time.Millisecond {
		t.Errorf("post-resume elapsed = %v, want 90ms", got)
	}
}

func TestTogglePause(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)

	if !s.TogglePause() || !s.Paused() {
		t.Error("first toggle should pause")
	}
	if s.TogglePause() || s.Paused() {
		t.Error("second toggle should resume")
	}
}

// ============================================================================
// Runtime Controls
// ============================================================================

func TestSetFPSClamps(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)

	tests := []struct {
		in, want int
	}{
		{60, 60},
		{0, MinFPS},
		{-10, MinFPS},
		{500, MaxFPS},
	}
	for _, tt := range tests {
		if got := s.SetFPS(tt.in); got != tt.want {
			t.Errorf("SetFPS(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if s.FPS() != tt.want {
			t.Errorf("FPS() after SetFPS(%d) = %d, want %d", tt.in, s.FPS(), tt.want)
		}
	}
}

func TestSetFPSRetargetsTelemetry(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)
	s.SetFPS(60)

	if got := s.monitor.Stats().TargetFPS; got != 60 {
		t.Errorf("telemetry target = %d, want 60", got)
	}
}

func TestAdjustFPS(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)

	if got := s.AdjustFPS(5); got != 35 {
		t.Errorf("AdjustFPS(+5) = %d, want 35", got)
	}
	if got := s.AdjustFPS(-100); got != MinFPS {
		t.Errorf("AdjustFPS(-100) = %d, want %d", got, MinFPS)
	}
}

func TestSetPatternRestartsElapsed(t *testing.T) {
	s, clock, _, _ := newTestScheduler(t, 30)

	// Run the first pattern for a while
	s.tick(t0.Add(40 * time.Millisecond))
	clock.SetTime(t0.Add(2 * time.Second))

	next := &recordingPattern{}
	s.SetPattern(next)

	if next.resets != 1 {
		t.Errorf("incoming pattern resets = %d, want 1", next.resets)
	}

	s.tick(t0.Add(2*time.Second + 40*time.Millisecond))
	if got := next.lastCtx().Elapsed; got != 40*time.Millisecond {
		t.Errorf("elapsed after switch = %v, want 40ms", got)
	}
}

func TestMouseStateReachesPattern(t *testing.T) {
	s, _, rec, _ := newTestScheduler(t, 30)

	s.SetMouse(7, 3, true)
	s.tick(t0.Add(40 * time.Millisecond))

	ctx := rec.lastCtx()
	if ctx.MouseX != 7 || ctx.MouseY != 3 || !ctx.MouseActive {
		t.Errorf("pattern ctx mouse = (%d,%d,%v), want (7,3,true)", ctx.MouseX, ctx.MouseY, ctx.MouseActive)
	}
}

func TestAfterRenderHook(t *testing.T) {
	s, _, _, _ := newTestScheduler(t, 30)

	calls := 0
	s.SetAfterRender(func() { calls++ })

	s.tick(t0.Add(40 * time.Millisecond))
	s.tick(t0.Add(80 * time.Millisecond))

	if calls != 2 {
		t.Errorf("afterRender calls = %d, want 2", calls)
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestStartTwiceErrors(t *testing.T) {
	con := &schedConsole{width: 20, height: 5}
	em := render.NewEmitter(con)
	if err := em.Init(terminal.MouseModeNone); err != nil {
		t.Fatalf("emitter Init() error = %v", err)
	}
	s := NewScheduler(em, telemetry.NewMonitor(30), NewTimeProvider(), log.New(io.Discard), nil, 30)
	defer s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}
	if !s.Running() {
		t.Error("Running() = false while started")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	con := &schedConsole{width: 20, height: 5}
	em := render.NewEmitter(con)
	if err := em.Init(terminal.MouseModeNone); err != nil {
		t.Fatalf("emitter Init() error = %v", err)
	}
	s := NewScheduler(em, telemetry.NewMonitor(30), NewTimeProvider(), log.New(io.Discard), nil, 30)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestLiveLoopProducesFrames(t *testing.T) {
	con := &schedConsole{width: 20, height: 5}
	em := render.NewEmitter(con)
	if err := em.Init(terminal.MouseModeNone); err != nil {
		t.Fatalf("emitter Init() error = %v", err)
	}
	s := NewScheduler(em, telemetry.NewMonitor(60), NewTimeProvider(), log.New(io.Discard), nil, 60)

	rec := &recordingPattern{}
	s.SetPattern(rec)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	s.Stop()

	// 300ms at 60 FPS is ~18 frames; allow a wide margin for loaded CI
	got := rec.renders()
	if got < 3 {
		t.Errorf("renders in 300ms = %d, want at least 3", got)
	}
	if got > 25 {
		t.Errorf("renders in 300ms = %d, want at most 25", got)
	}
}

func TestLiveLoopHandlesResize(t *testing.T) {
	con := &schedConsole{width: 20, height: 5}
	em := render.NewEmitter(con)
	if err := em.Init(terminal.MouseModeNone); err != nil {
		t.Fatalf("emitter Init() error = %v", err)
	}

	resizeCh := make(chan terminal.ResizeEvent, 1)
	s := NewScheduler(em, telemetry.NewMonitor(30), NewTimeProvider(), log.New(io.Discard), resizeCh, 30)

	rec := &recordingPattern{}
	s.SetPattern(rec)
	rec.mu.Lock()
	rec.resets = 0
	rec.mu.Unlock()

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	con.setSize(40, 10)
	resizeCh <- terminal.ResizeEvent{Width: 40, Height: 10}
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if w, h := em.Buffer().Size(); w != 40 || h != 10 {
		t.Errorf("buffer size after resize = %dx%d, want 40x10", w, h)
	}
	rec.mu.Lock()
	resets := rec.resets
	rec.mu.Unlock()
	if resets != 1 {
		t.Errorf("pattern resets after resize = %d, want 1", resets)
	}
}
