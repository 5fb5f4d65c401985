package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker logs the progress of a long extraction or
// reconciliation run at intervals, so large mailbox imports are not
// silent for minutes.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	logInterval time.Duration

	mu          sync.Mutex
	current     int64
	startTime   time.Time
	lastLogTime time.Time
}

// NewProgressTracker creates a tracker for an operation over total
// items. A zero interval logs every 5 seconds.
func NewProgressTracker(operation string, total int64, log Logger) *ProgressTracker {
	if log == nil {
		log = GetGlobalLogger()
	}

	now := time.Now()
	return &ProgressTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		logInterval: 5 * time.Second,
		startTime:   now,
		lastLogTime: now,
	}
}

// Increment advances the counter by one.
func (p *ProgressTracker) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	now := time.Now()
	if now.Sub(p.lastLogTime) >= p.logInterval {
		p.logProgress(now)
		p.lastLogTime = now
	}
}

// Complete logs the final counters and timing.
func (p *ProgressTracker) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	duration := time.Since(p.startTime)
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
		"duration":  duration.String(),
	}
	if duration.Seconds() > 0 {
		fields["rate"] = fmt.Sprintf("%.1f/sec", float64(p.current)/duration.Seconds())
	}
	p.logger.WithFields(fields).Debug("operation complete")
}

func (p *ProgressTracker) logProgress(now time.Time) {
	fields := Fields{
		"operation": p.operation,
		"processed": p.current,
	}
	if p.total > 0 {
		fields["total"] = p.total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(p.current)/float64(p.total)*100)
	}
	if elapsed := now.Sub(p.startTime).Seconds(); elapsed > 0 {
		fields["rate"] = fmt.Sprintf("%.1f/sec", float64(p.current)/elapsed)
	}
	p.logger.WithFields(fields).Info("progress update")
}
