package telemetry

import (
	"testing"
	"time"
)

// feedFrames pushes n frames of the given duration through the monitor
func feedFrames(m *Monitor, start time.Time, d time.Duration, n int) time.Time {
	now := start
	m.StartFrame(now)
	for i := 0; i < n; i++ {
		now = now.Add(d)
		m.StartFrame(now)
	}
	return now
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ============================================================================
// Sampling
// ============================================================================

func TestFirstFramePrimesOnly(t *testing.T) {
	m := NewMonitor(30)
	m.StartFrame(base)

	s := m.Stats()
	if s.Samples != 0 {
		t.Errorf("Samples after first frame = %d, want 0", s.Samples)
	}
	if s.TotalFrames != 0 {
		t.Errorf("TotalFrames after first frame = %d, want 0", s.TotalFrames)
	}
}

func TestFrameTimeAndFPS(t *testing.T) {
	m := NewMonitor(30)
	feedFrames(m, base, 20*time.Millisecond, 10)

	s := m.Stats()
	if s.Samples != 10 {
		t.Fatalf("Samples = %d, want 10", s.Samples)
	}
	if s.FrameTime != 20*time.Millisecond {
		t.Errorf("FrameTime = %v, want 20ms", s.FrameTime)
	}
	if s.FPS < 49.9 || s.FPS > 50.1 {
		t.Errorf("FPS = %.2f, want ~50", s.FPS)
	}
}

func TestMinFPSTracksSlowestFrame(t *testing.T) {
	m := NewMonitor(30)

	// Nine 20ms frames and one 100ms stall
	now := feedFrames(m, base, 20*time.Millisecond, 9)
	m.StartFrame(now.Add(100 * time.Millisecond))

	s := m.Stats()
	if s.MinFPS < 9.9 || s.MinFPS > 10.1 {
		t.Errorf("MinFPS = %.2f, want ~10", s.MinFPS)
	}
	if s.FPS <= s.MinFPS {
		t.Errorf("FPS %.2f should exceed MinFPS %.2f", s.FPS, s.MinFPS)
	}
}

func TestWindowSaturatesAtCapacity(t *testing.T) {
	m := NewMonitor(30)
	feedFrames(m, base, 10*time.Millisecond, 100)

	s := m.Stats()
	if s.Samples != windowSize {
		t.Errorf("Samples = %d, want %d", s.Samples, windowSize)
	}
	if s.TotalFrames != 100 {
		t.Errorf("TotalFrames = %d, want 100", s.TotalFrames)
	}
}

func TestOldSamplesEvictedOnWrap(t *testing.T) {
	m := NewMonitor(30)

	// Fill the window with slow frames, then push enough fast frames to
	// evict every slow sample
	now := feedFrames(m, base, 100*time.Millisecond, windowSize)
	feedFrames(m, now, 10*time.Millisecond, windowSize)

	s := m.Stats()
	if s.FrameTime != 10*time.Millisecond {
		t.Errorf("FrameTime after wrap = %v, want 10ms", s.FrameTime)
	}
	if s.DroppedWindow != 0 {
		t.Errorf("DroppedWindow after wrap = %d, want 0", s.DroppedWindow)
	}
}

func TestZeroDeltaIgnored(t *testing.T) {
	m := NewMonitor(30)
	m.StartFrame(base)
	m.StartFrame(base) // Same instant
	m.StartFrame(base.Add(-time.Second))

	if s := m.Stats(); s.Samples != 0 {
		t.Errorf("Samples = %d, want 0 (non-advancing clock)", s.Samples)
	}
}

// ============================================================================
// Drop Classification
// ============================================================================

func TestDropThreshold(t *testing.T) {
	// Target 20 FPS: interval 50ms, drop threshold 75ms
	tests := []struct {
		name string
		d    time.Duration
		drop bool
	}{
		{"on target", 50 * time.Millisecond, false},
		{"exactly 1.5x", 75 * time.Millisecond, false},
		{"just over 1.5x", 75*time.Millisecond + time.Nanosecond, true},
		{"double", 100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(20)
			feedFrames(m, base, tt.d, 1)

			s := m.Stats()
			wantWindow, wantTotal := 0, uint64(0)
			if tt.drop {
				wantWindow, wantTotal = 1, 1
			}
			if s.DroppedWindow != wantWindow {
				t.Errorf("DroppedWindow = %d, want %d", s.DroppedWindow, wantWindow)
			}
			if s.TotalDropped != wantTotal {
				t.Errorf("TotalDropped = %d, want %d", s.TotalDropped, wantTotal)
			}
		})
	}
}

func TestRetargetDoesNotReclassify(t *testing.T) {
	m := NewMonitor(30) // 33.3ms interval, 50ms threshold

	// 40ms frames are on target at 30 FPS
	feedFrames(m, base, 40*time.Millisecond, 10)
	if s := m.Stats(); s.DroppedWindow != 0 {
		t.Fatalf("DroppedWindow = %d, want 0 before retarget", s.DroppedWindow)
	}

	// At 60 FPS those same frames would be drops, but retargeting must
	// neither clear nor reclassify the window
	m.SetTargetFPS(60)

	s := m.Stats()
	if s.Samples != 10 {
		t.Errorf("Samples after retarget = %d, want 10", s.Samples)
	}
	if s.DroppedWindow != 0 {
		t.Errorf("DroppedWindow after retarget = %d, want 0", s.DroppedWindow)
	}
	if s.TargetFPS != 60 {
		t.Errorf("TargetFPS = %d, want 60", s.TargetFPS)
	}
}

func TestNewTargetAppliesToNewSamples(t *testing.T) {
	m := NewMonitor(30)
	now := feedFrames(m, base, 40*time.Millisecond, 5)

	m.SetTargetFPS(60) // 16.6ms interval, 25ms threshold
	feedFrames(m, now, 40*time.Millisecond, 5)

	s := m.Stats()
	if s.DroppedWindow != 5 {
		t.Errorf("DroppedWindow = %d, want 5 (only post-retarget frames)", s.DroppedWindow)
	}
}

// ============================================================================
// Reset Semantics
// ============================================================================

func TestResetClearsWindowKeepsTotals(t *testing.T) {
	m := NewMonitor(20)
	now := feedFrames(m, base, 100*time.Millisecond, 10) // All drops

	before := m.Stats()
	if before.TotalFrames != 10 || before.TotalDropped != 10 {
		t.Fatalf("totals before reset = %d/%d, want 10/10", before.TotalFrames, before.TotalDropped)
	}

	m.Reset()

	s := m.Stats()
	if s.Samples != 0 || s.DroppedWindow != 0 {
		t.Errorf("window after reset = %d samples/%d dropped, want 0/0", s.Samples, s.DroppedWindow)
	}
	if s.TotalFrames != 10 || s.TotalDropped != 10 {
		t.Errorf("totals after reset = %d/%d, want 10/10 preserved", s.TotalFrames, s.TotalDropped)
	}

	// The clock re-primes: the first post-reset frame is not a sample
	m.StartFrame(now.Add(5 * time.Second))
	if s := m.Stats(); s.Samples != 0 {
		t.Errorf("Samples after re-prime = %d, want 0", s.Samples)
	}
	m.StartFrame(now.Add(5*time.Second + 50*time.Millisecond))
	s = m.Stats()
	if s.Samples != 1 {
		t.Errorf("Samples = %d, want 1", s.Samples)
	}
	if s.TotalFrames != 11 {
		t.Errorf("TotalFrames = %d, want 11", s.TotalFrames)
	}
}

func TestResetPreservesCellTotals(t *testing.T) {
	m := NewMonitor(30)
	m.RecordEmit(time.Millisecond, 500)
	m.RecordEmit(time.Millisecond, 300)

	m.Reset()

	if s := m.Stats(); s.TotalCells != 800 {
		t.Errorf("TotalCells after reset = %d, want 800", s.TotalCells)
	}
}

// ============================================================================
// Percentile
// ============================================================================

func TestPercentileEmpty(t *testing.T) {
	m := NewMonitor(30)
	if p := m.Percentile(99); p != 0 {
		t.Errorf("Percentile on empty window = %v, want 0", p)
	}
}

func TestPercentileRankSelection(t *testing.T) {
	m := NewMonitor(30)

	// Frame durations in shuffled arrival order; the rates sort to
	// [20, 25, 40, 50, 100] fps
	now := base
	m.StartFrame(now)
	for _, d := range []time.Duration{
		25 * time.Millisecond, // 40 fps
		10 * time.Millisecond, // 100 fps
		50 * time.Millisecond, // 20 fps
		20 * time.Millisecond, // 50 fps
		40 * time.Millisecond, // 25 fps
	} {
		now = now.Add(d)
		m.StartFrame(now)
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 20},    // Slowest frame
		{25, 25},   // floor(0.25 * 4) = 1
		{50, 40},   // floor(0.50 * 4) = 2
		{75, 50},   // floor(0.75 * 4) = 3
		{100, 100}, // Fastest frame
		{150, 100}, // Clamped
		{-5, 20},   // Clamped
	}

	for _, tt := range tests {
		got := m.Percentile(tt.p)
		if got < tt.want-0.1 || got > tt.want+0.1 {
			t.Errorf("Percentile(%.0f) = %.2f, want ~%.0f", tt.p, got, tt.want)
		}
	}
}

func TestPercentileSingleSample(t *testing.T) {
	m := NewMonitor(30)
	feedFrames(m, base, 33*time.Millisecond, 1)

	want := float64(time.Second) / float64(33*time.Millisecond)
	for _, p := range []float64{0, 50, 100} {
		if got := m.Percentile(p); got != want {
			t.Errorf("Percentile(%.0f) = %.2f, want %.2f", p, got, want)
		}
	}
}

// ============================================================================
// Phase Accumulators
// ============================================================================

func TestUpdateEmitAverages(t *testing.T) {
	m := NewMonitor(30)

	m.RecordUpdate(2 * time.Millisecond)
	m.RecordUpdate(4 * time.Millisecond)
	m.RecordEmit(1*time.Millisecond, 100)
	m.RecordEmit(3*time.Millisecond, 200)

	s := m.Stats()
	if s.AvgUpdate != 3*time.Millisecond {
		t.Errorf("AvgUpdate = %v, want 3ms", s.AvgUpdate)
	}
	if s.AvgEmit != 2*time.Millisecond {
		t.Errorf("AvgEmit = %v, want 2ms", s.AvgEmit)
	}
	if s.LastCells != 200 {
		t.Errorf("LastCells = %d, want 200", s.LastCells)
	}
	if s.TotalCells != 300 {
		t.Errorf("TotalCells = %d, want 300", s.TotalCells)
	}
}
