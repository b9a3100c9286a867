package main

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports report download progress on a terminal line.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
	started   bool
	reported  bool
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker writing to writer
// (typically os.Stderr).
func NewProgressTracker(writer io.Writer) *ProgressTracker {
	return &ProgressTracker{writer: writer}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.total = 0
	p.reported = false
}

// Update records fetched out of total reports. Its signature matches
// openfda.WithProgress.
func (p *ProgressTracker) Update(fetched, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.total = total
	p.current = min(fetched, total)
	p.report()
}

// Finish ends the progress line if anything was printed.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.started = false
	if p.reported {
		fmt.Fprintln(p.writer) // Print newline after final progress
	}
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	if p.total == 0 {
		return
	}
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()
	percentage := float64(p.current) / float64(p.total) * 100.0

	fmt.Fprintf(p.writer, "\rFetched: %d/%d reports (%.1f%%) - %.1f reports/s",
		p.current, p.total, percentage, rate)
	p.reported = true
}
