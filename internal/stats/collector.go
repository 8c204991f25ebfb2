// Package stats samples process resource usage over an encode run.
package stats

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one observation of the running process.
type Sample struct {
	Elapsed    time.Duration
	HeapAlloc  uint64
	Sys        uint64
	RSS        uint64
	CPUPercent float64
	Goroutines int
	NumGC      uint32
}

// RunStats is the result of a collection run.
type RunStats struct {
	Start   time.Time
	End     time.Time
	Samples []Sample
}

// Collector periodically samples the current process until stopped.
type Collector struct {
	mu      sync.Mutex
	samples []Sample

	start    time.Time
	interval time.Duration
	proc     *process.Process
	stop     chan struct{}
	done     chan struct{}
}

func NewCollector(interval time.Duration) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}
	return &Collector{
		interval: interval,
		proc:     proc,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.start = time.Now()
	go c.loop()
}

func (c *Collector) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stop:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Sample{
		Elapsed:    time.Since(c.start),
		HeapAlloc:  mem.HeapAlloc,
		Sys:        mem.Sys,
		Goroutines: runtime.NumGoroutine(),
		NumGC:      mem.NumGC,
	}
	if info, err := c.proc.MemoryInfo(); err == nil && info != nil {
		s.RSS = info.RSS
	}
	if pct, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = pct
	}

	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Stop ends collection and returns the gathered stats.
func (c *Collector) Stop() RunStats {
	close(c.stop)
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	return RunStats{
		Start:   c.start,
		End:     time.Now(),
		Samples: c.samples,
	}
}

// SaveToFile writes a plain-text run report.
func (stats RunStats) SaveToFile(filename string) error {
	var peakHeap, peakRSS uint64
	var peakCPU, totalCPU float64
	for _, s := range stats.Samples {
		if s.HeapAlloc > peakHeap {
			peakHeap = s.HeapAlloc
		}
		if s.RSS > peakRSS {
			peakRSS = s.RSS
		}
		if s.CPUPercent > peakCPU {
			peakCPU = s.CPUPercent
		}
		totalCPU += s.CPUPercent
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "encode run report\n")
	fmt.Fprintf(&sb, "started:    %s\n", stats.Start.Format(time.RFC3339))
	fmt.Fprintf(&sb, "finished:   %s\n", stats.End.Format(time.RFC3339))
	fmt.Fprintf(&sb, "duration:   %s\n", stats.End.Sub(stats.Start))
	fmt.Fprintf(&sb, "peak heap:  %s\n", humanize.IBytes(peakHeap))
	fmt.Fprintf(&sb, "peak rss:   %s\n", humanize.IBytes(peakRSS))
	fmt.Fprintf(&sb, "peak cpu:   %.2f%%\n", peakCPU)
	if len(stats.Samples) > 0 {
		fmt.Fprintf(&sb, "avg cpu:    %.2f%%\n", totalCPU/float64(len(stats.Samples)))
	}
	fmt.Fprintf(&sb, "samples:    %d\n\n", len(stats.Samples))

	fmt.Fprintf(&sb, "%-12s %-12s %-12s %-8s %-10s\n", "elapsed", "heap", "rss", "cpu%", "goroutines")
	for _, s := range stats.Samples {
		fmt.Fprintf(&sb, "%-12s %-12s %-12s %-8.1f %-10d\n",
			s.Elapsed.Round(time.Millisecond),
			humanize.IBytes(s.HeapAlloc),
			humanize.IBytes(s.RSS),
			s.CPUPercent,
			s.Goroutines)
	}

	if err := os.WriteFile(filename, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
