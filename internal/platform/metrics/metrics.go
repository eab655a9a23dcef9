package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-lifetime counters exposed on /metrics.
type Collector struct {
	requests          atomic.Uint64
	serverErrors      atomic.Uint64
	rateLimited       atomic.Uint64
	durationMs        atomic.Uint64
	attendanceCreated atomic.Uint64
	duplicateBatches  atomic.Uint64
	payrollRuns       atomic.Uint64
	payrollFailures   atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordRequest(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.Add(1)
	if status >= 500 {
		c.serverErrors.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.durationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) AttendanceCreated(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.attendanceCreated.Add(uint64(n))
}

func (c *Collector) DuplicateBatch() {
	if c == nil {
		return
	}
	c.duplicateBatches.Add(1)
}

func (c *Collector) PayrollRun(err error) {
	if c == nil {
		return
	}
	c.payrollRuns.Add(1)
	if err != nil {
		c.payrollFailures.Add(1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := c.requests.Load()
	totalMs := c.durationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":            total,
		"errorsTotal":              c.serverErrors.Load(),
		"rateLimitedTotal":         c.rateLimited.Load(),
		"avgDurationMs":            avg,
		"attendanceCreatedTotal":   c.attendanceCreated.Load(),
		"duplicateBatchesTotal":    c.duplicateBatches.Load(),
		"payrollCalculationsTotal": c.payrollRuns.Load(),
		"payrollFailuresTotal":     c.payrollFailures.Load(),
	}
}
