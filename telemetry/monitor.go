package telemetry

import (
	"sort"
	"sync"
	"time"
)

// windowSize is the rolling sample capacity for per-frame measurements
const windowSize = 60

// Stats is a point-in-time snapshot of frame performance
type Stats struct {
	FPS       float64       // Mean frames per second over the window
	MinFPS    float64       // Slowest frame in the window
	FrameTime time.Duration // Mean frame duration over the window
	Samples   int           // Valid samples currently in the window

	DroppedWindow int // Dropped frames in the window

	TotalFrames  uint64 // Lifetime measured frames, survives Reset
	TotalDropped uint64 // Lifetime dropped frames, survives Reset
	TotalCells   uint64 // Lifetime emitted cells, survives Reset

	AvgUpdate time.Duration // Lifetime mean pattern update duration
	AvgEmit   time.Duration // Lifetime mean emit duration
	LastCells int           // Cells emitted by the most recent frame

	TargetFPS int
}

// Monitor measures frame cadence against a target rate.
//
// Frame duration, instantaneous FPS and the dropped flag are recorded in
// three aligned rolling windows: index i in each window describes the
// same frame. A frame is dropped when its duration exceeds 1.5x the
// target interval in force at measurement time; retargeting does not
// reclassify old samples. Lifetime totals accumulate across Reset so a
// session summary survives window clears.
type Monitor struct {
	mu sync.Mutex

	targetFPS      int
	targetInterval time.Duration

	prevStart time.Time
	hasPrev   bool

	frameTimes [windowSize]time.Duration
	fps        [windowSize]float64
	dropped    [windowSize]bool
	head       int // Next write position
	count      int // Valid samples, saturates at windowSize

	totalFrames  uint64
	totalDropped uint64
	totalCells   uint64

	updateTotal time.Duration
	updateCount uint64
	emitTotal   time.Duration
	emitCount   uint64
	lastCells   int

	sortScratch []float64
}

// NewMonitor creates a monitor targeting the given frame rate
func NewMonitor(targetFPS int) *Monitor {
	m := &Monitor{
		sortScratch: make([]float64, 0, windowSize),
	}
	m.setTarget(targetFPS)
	return m
}

// setTarget stores the target rate. Caller holds m.mu (or owns m exclusively).
func (m *Monitor) setTarget(fps int) {
	if fps < 1 {
		fps = 1
	}
	m.targetFPS = fps
	m.targetInterval = time.Second / time.Duration(fps)
}

// SetTargetFPS changes the drop-classification target. Existing window
// samples keep the classification they were recorded with.
func (m *Monitor) SetTargetFPS(fps int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setTarget(fps)
}

// TargetFPS returns the current classification target
func (m *Monitor) TargetFPS() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.targetFPS
}

// StartFrame marks the beginning of a frame cycle. The interval since the
// previous call becomes one sample; the first call only primes the clock.
func (m *Monitor) StartFrame(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasPrev {
		m.prevStart = now
		m.hasPrev = true
		return
	}

	ft := now.Sub(m.prevStart)
	m.prevStart = now
	if ft <= 0 {
		// Clock went backwards or stood still; not a measurable frame
		return
	}

	drop := ft > m.targetInterval+m.targetInterval/2

	m.frameTimes[m.head] = ft
	m.fps[m.head] = float64(time.Second) / float64(ft)
	m.dropped[m.head] = drop
	m.head = (m.head + 1) % windowSize
	if m.count < windowSize {
		m.count++
	}

	m.totalFrames++
	if drop {
		m.totalDropped++
	}
}

// RecordUpdate accumulates the pattern update duration for one frame
func (m *Monitor) RecordUpdate(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateTotal += d
	m.updateCount++
}

// RecordEmit accumulates the emit duration and cell count for one frame
func (m *Monitor) RecordEmit(d time.Duration, cells int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emitTotal += d
	m.emitCount++
	m.lastCells = cells
	if cells > 0 {
		m.totalCells += uint64(cells)
	}
}

// Reset clears the sample windows and re-primes the frame clock.
// Lifetime totals are preserved.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.head = 0
	m.count = 0
	m.hasPrev = false
}

// Stats returns a snapshot of current performance
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Samples:      m.count,
		TotalFrames:  m.totalFrames,
		TotalDropped: m.totalDropped,
		TotalCells:   m.totalCells,
		LastCells:    m.lastCells,
		TargetFPS:    m.targetFPS,
	}

	if m.count > 0 {
		var ftSum time.Duration
		var fpsSum float64
		s.MinFPS = m.fps[0]
		for i := 0; i < m.count; i++ {
			ftSum += m.frameTimes[i]
			fpsSum += m.fps[i]
			if m.fps[i] < s.MinFPS {
				s.MinFPS = m.fps[i]
			}
			if m.dropped[i] {
				s.DroppedWindow++
			}
		}
		s.FrameTime = ftSum / time.Duration(m.count)
		s.FPS = fpsSum / float64(m.count)
	}
	if m.updateCount > 0 {
		s.AvgUpdate = m.updateTotal / time.Duration(m.updateCount)
	}
	if m.emitCount > 0 {
		s.AvgEmit = m.emitTotal / time.Duration(m.emitCount)
	}
	return s
}

// Percentile returns the p-th percentile of the rolling fps window,
// computed on demand from a sorted copy. Percentile(0) is the slowest
// frame's rate, Percentile(100) the fastest. Returns 0 with no samples.
func (m *Monitor) Percentile(p float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	m.sortScratch = m.sortScratch[:0]
	for i := 0; i < m.count; i++ {
		m.sortScratch = append(m.sortScratch, m.fps[i])
	}
	sort.Float64s(m.sortScratch)

	idx := int(p / 100 * float64(m.count-1))
	return m.sortScratch[idx]
}
