package profiler

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
)

func logger() *slog.Logger {
	return common.ComponentLogger("profiler")
}

// BlockStats is the accumulated time of one named block over a reporting interval.
type BlockStats struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean duration of one block execution.
func (b BlockStats) Average() time.Duration {
	if b.Count == 0 {
		return 0
	}
	return b.Total / time.Duration(b.Count)
}

// Stats is a snapshot of one reporting interval.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	// Blocks are sorted by total time, largest first.
	Blocks []BlockStats
}

// Profiler tracks frame rate, memory statistics and named timing blocks.
// Stats are logged at Info level every update interval.
//
// Blocks may be timed from any goroutine. A nil *Profiler is valid and records nothing,
// so callers can hold an optional profiler without checks.
type Profiler struct {
	mu             *sync.Mutex
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	blocks map[string]*BlockStats
	last   Stats
	now    func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		updateInterval: time.Second,
		blocks:         make(map[string]*BlockStats),
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Block starts timing the named block and returns the function that ends it.
// Typical use is `defer p.Block("UpdateViews")()`.
//
// Parameters:
//   - name: the block name, blocks with the same name accumulate
//
// Returns:
//   - func(): ends the block
func (p *Profiler) Block(name string) func() {
	if p == nil {
		return func() {}
	}
	start := p.now()
	return func() {
		p.record(name, p.now().Sub(start))
	}
}

func (p *Profiler) record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.blocks[name]
	if !ok {
		b = &BlockStats{Name: name}
		p.blocks[name] = b
	}
	b.Count++
	b.Total += d
	if d > b.Max {
		b.Max = d
	}
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory
// and the blocks timed since the last report.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:    float64(p.frameCount) / elapsed.Seconds(),
		HeapMB: float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:  float64(p.memStats.Sys) / 1024 / 1024,
		NumGC:  p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	stats.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	if gcCount := p.memStats.NumGC; gcCount > 0 {
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	for _, b := range p.blocks {
		stats.Blocks = append(stats.Blocks, *b)
	}
	sort.Slice(stats.Blocks, func(i, j int) bool {
		if stats.Blocks[i].Total != stats.Blocks[j].Total {
			return stats.Blocks[i].Total > stats.Blocks[j].Total
		}
		return stats.Blocks[i].Name < stats.Blocks[j].Name
	})
	clear(p.blocks)

	attrs := []any{
		"fps", stats.FPS,
		"heap_mb", stats.HeapMB,
		"alloc_rate_mb", stats.AllocRateMB,
		"gc", stats.NumGC,
		"gc_last_us", stats.LastPauseUs,
		"gc_max_us", stats.MaxPauseUs,
		"sys_mb", stats.SysMB,
	}
	for _, b := range stats.Blocks {
		attrs = append(attrs, slog.Group(b.Name,
			"count", b.Count,
			"avg", b.Average(),
			"max", b.Max))
	}
	logger().Info("frame stats", attrs...)

	p.last = stats
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// LastStats returns the stats of the last completed interval.
func (p *Profiler) LastStats() Stats {
	if p == nil {
		return Stats{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
