package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Progress tracks and displays run progress on stderr.
type Progress struct {
	mu        sync.Mutex
	w         io.Writer
	total     int
	completed int
	failed    int
	errors    int
	current   string
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	quiet     bool
}

// NewProgress creates a progress tracker. Call Start() to begin display updates.
func NewProgress(total int, quiet bool) *Progress {
	return &Progress{
		w:       os.Stderr,
		total:   total,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		quiet:   quiet,
	}
}

// Start begins periodically printing progress to stderr.
func (p *Progress) Start() {
	if p.quiet {
		close(p.stopped)
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(p.w, "\n")
				return
			}
		}
	}()
}

// SetCurrent records the route being tested.
func (p *Progress) SetCurrent(route string) {
	p.mu.Lock()
	p.current = route
	p.mu.Unlock()
}

// Increment records a completed route.
func (p *Progress) Increment() {
	p.mu.Lock()
	p.completed++
	p.mu.Unlock()
}

// IncrementFailed records a route that differed beyond the threshold.
func (p *Progress) IncrementFailed() {
	p.mu.Lock()
	p.failed++
	p.mu.Unlock()
}

// IncrementErrors records a route that could not be tested.
func (p *Progress) IncrementErrors() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

// Printf clears the progress line, prints a message, and lets the next tick
// redraw the line below it.
func (p *Progress) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.quiet {
		fmt.Fprint(p.w, "\r\033[K")
	}
	fmt.Fprintf(p.w, format, args...)
}

// ClearLine erases the progress line so a result can be printed in its place.
func (p *Progress) ClearLine() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprint(p.w, "\r\033[K")
	p.mu.Unlock()
}

// Redraw prints the progress line immediately.
func (p *Progress) Redraw() {
	if p.quiet {
		return
	}
	p.print()
}

// Stop ends the progress display and waits for the final redraw.
func (p *Progress) Stop() {
	close(p.done)
	<-p.stopped
}

func (p *Progress) print() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start)
	pct := float64(0)
	if p.total > 0 {
		pct = float64(p.completed) / float64(p.total) * 100
	}

	eta := ""
	if p.completed > 0 && p.completed < p.total {
		perRoute := elapsed / time.Duration(p.completed)
		eta = fmt.Sprintf("ETA: %s", (perRoute * time.Duration(p.total-p.completed)).Round(time.Second))
	}

	fmt.Fprintf(p.w, "\r\033[K[%3.0f%%] %d/%d | Failed: %d | Errors: %d | %s %s",
		pct, p.completed, p.total,
		p.failed, p.errors, p.current, eta)
}
