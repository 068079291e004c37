package perf

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"sync"
	"time"
)

// ProfilerConfig controls memory sampling.
type ProfilerConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"` // 0 disables periodic sampling
	MaxSamples     int           `yaml:"max_samples"`
}

// DefaultProfilerConfig samples every 5 seconds and keeps the last 120 samples.
func DefaultProfilerConfig() ProfilerConfig {
	return ProfilerConfig{SampleInterval: 5 * time.Second, MaxSamples: 120}
}

// Sample is one memory/runtime snapshot.
type Sample struct {
	Time        time.Time
	HeapAlloc   uint64
	HeapObjects uint64
	TotalAlloc  uint64
	NumGC       uint32
	Goroutines  int
}

// Timing aggregates durations recorded under one name.
type Timing struct {
	Count int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// Avg returns the mean duration.
func (t Timing) Avg() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// Profiler samples runtime.MemStats on an interval and aggregates named timings.
type Profiler struct {
	cfg ProfilerConfig
	now func() time.Time

	mu      sync.Mutex
	samples []Sample
	timings map[string]Timing

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProfiler creates a stopped profiler.
func NewProfiler(cfg ProfilerConfig) *Profiler {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = DefaultProfilerConfig().MaxSamples
	}
	return &Profiler{
		cfg:     cfg,
		now:     time.Now,
		timings: make(map[string]Timing),
	}
}

// Start launches the sampling loop. Stop or ctx cancellation ends it.
func (p *Profiler) Start(ctx context.Context) {
	if p.cfg.SampleInterval <= 0 {
		return
	}
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.mu.Unlock()

	p.wg.Go(func() {
		ticker := time.NewTicker(p.cfg.SampleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := p.Sample()
				slog.Debug("runtime sample",
					"heapAlloc", s.HeapAlloc,
					"heapObjects", s.HeapObjects,
					"numGC", s.NumGC,
					"goroutines", s.Goroutines)
			}
		}
	})
}

// Stop ends the sampling loop and waits for it.
func (p *Profiler) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Sample reads runtime.MemStats now and stores the result.
func (p *Profiler) Sample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	s := Sample{
		Time:        p.now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		TotalAlloc:  ms.TotalAlloc,
		NumGC:       ms.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.samples) == p.cfg.MaxSamples {
		copy(p.samples, p.samples[1:])
		p.samples = p.samples[:len(p.samples)-1]
	}
	p.samples = append(p.samples, s)
	return s
}

// Samples returns stored samples, oldest first.
func (p *Profiler) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sample(nil), p.samples...)
}

// Latest returns the newest sample.
func (p *Profiler) Latest() (Sample, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.samples) == 0 {
		return Sample{}, false
	}
	return p.samples[len(p.samples)-1], true
}

// Record adds one duration under name.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.timings[name]
	if t.Count == 0 || d < t.Min {
		t.Min = d
	}
	t.Max = max(t.Max, d)
	t.Count++
	t.Total += d
	t.Last = d
	p.timings[name] = t
}

// Measure starts a timer; the returned func records the elapsed time.
//
//	defer prof.Measure("battle.attack")()
func (p *Profiler) Measure(name string) func() {
	start := p.now()
	return func() { p.Record(name, p.now().Sub(start)) }
}

// Timings returns a copy of all aggregated timings.
func (p *Profiler) Timings() map[string]Timing {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.timings)
}

// Reset drops samples and timings.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = nil
	clear(p.timings)
}
