package utils

import (
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker renders transfer progress for one download. When the
// content length is unknown the bar degrades to a byte counter.
type ProgressTracker struct {
	bar       *pb.ProgressBar
	quiet     bool
	startTime time.Time
	total     int64
	current   int64
	mutex     sync.Mutex
}

// TransferSummary contains final transfer statistics.
type TransferSummary struct {
	TotalBytes   int64
	TotalTime    time.Duration
	AverageSpeed float64 // bytes per second
	Filename     string
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker(total int64, quiet bool) *ProgressTracker {
	tracker := &ProgressTracker{
		quiet:     quiet,
		startTime: time.Now(),
		total:     total,
	}

	if !quiet {
		var bar *pb.ProgressBar
		if total > 0 {
			tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
			bar = pb.ProgressBarTemplate(tmpl).Start64(total)
		} else {
			tmpl := `{{string . "prefix"}}{{counters . }} {{speed . }}`
			bar = pb.ProgressBarTemplate(tmpl).Start64(0)
		}
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", "Downloading: ")
		tracker.bar = bar
	}

	return tracker
}

// Update sets the cumulative byte count transferred so far.
func (p *ProgressTracker) Update(current int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current = current
	if p.bar != nil {
		p.bar.SetCurrent(current)
	}
}

// Add advances the progress by n bytes.
func (p *ProgressTracker) Add(n int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current += n
	if p.bar != nil {
		p.bar.SetCurrent(p.current)
	}
}

// Finish stops the bar and returns the final statistics.
func (p *ProgressTracker) Finish() *TransferSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}

	elapsed := time.Since(p.startTime)
	summary := &TransferSummary{
		TotalBytes: p.current,
		TotalTime:  elapsed,
	}
	if elapsed > 0 {
		summary.AverageSpeed = float64(p.current) / elapsed.Seconds()
	}
	return summary
}
