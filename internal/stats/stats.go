package stats

import (
	"time"

	"github.com/atikulmunna/iisfilter/internal/filter"
)

// Stats holds a point-in-time snapshot of a filter run.
type Stats struct {
	Elapsed        string `json:"elapsed"`
	LinesRead      int64  `json:"lines_read"`
	Headers        int64  `json:"headers"`
	Comments       int64  `json:"comments"`
	Unready        int64  `json:"unready"` // data lines seen before any usable header
	BelowThreshold int64  `json:"below_threshold"`
	Excluded       int64  `json:"excluded"`
	NotIncluded    int64  `json:"not_included"`
	Emitted        int64  `json:"emitted"`
}

// Counter accumulates per-line outcomes. It is owned by the processing loop
// and is not safe for concurrent use.
type Counter struct {
	start time.Time
	s     Stats
}

// New returns a Counter with its clock started.
func New() *Counter {
	return &Counter{start: time.Now()}
}

// Line records that a line was read.
func (c *Counter) Line() { c.s.LinesRead++ }

// Header records a '#Fields:' line.
func (c *Counter) Header() { c.s.Headers++ }

// Comment records any other '#' line.
func (c *Counter) Comment() { c.s.Comments++ }

// Unready records a data line dropped because no schema was ready.
func (c *Counter) Unready() { c.s.Unready++ }

// Decision records the outcome of the cascade for a data line.
func (c *Counter) Decision(d filter.Decision) {
	if d.Emitted() {
		c.s.Emitted++
		return
	}
	switch d.Level {
	case filter.LevelTimeTaken:
		c.s.BelowThreshold++
	case filter.LevelExclusion:
		c.s.Excluded++
	case filter.LevelInclusion:
		c.s.NotIncluded++
	}
}

// Snapshot returns the current counters.
func (c *Counter) Snapshot() Stats {
	s := c.s
	s.Elapsed = time.Since(c.start).Truncate(time.Millisecond).String()
	return s
}

// Suppressed returns the number of data lines the cascade rejected.
func (s Stats) Suppressed() int64 {
	return s.BelowThreshold + s.Excluded + s.NotIncluded
}
