package tasks

import (
	"fmt"
	"sync"

	"github.com/desertthunder/tvx/internal/models"
)

// ProgressFunc receives progress of a running scan or replacement.
// Calls are serialized by the engine; a ProgressFunc must not block for long.
type ProgressFunc func(models.Progress)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 while unknown
	Message string // Human-readable message for display
	Data    any    // The [models.Progress] the update was built from
}

// Operation phase enumeration
type Phase int

const (
	ResolveCatalog Phase = iota
	ScanPlaylists
	ReplaceTracks
)

func (p Phase) String() string {
	switch p {
	case ResolveCatalog:
		return "resolve_catalog"
	case ScanPlaylists:
		return "scan_playlists"
	case ReplaceTracks:
		return "replace_tracks"
	default:
		return ""
	}
}

// Channel adapts a progress channel into a [ProgressFunc] for phase.
//
// Sends never block: when the channel is full the update is dropped.
func Channel(phase Phase, ch chan<- ProgressUpdate) ProgressFunc {
	if ch == nil {
		return nil
	}
	return func(p models.Progress) {
		sendProgress(ch, newUpdate(phase, p))
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func newUpdate(phase Phase, p models.Progress) ProgressUpdate {
	u := ProgressUpdate{Phase: phase, Step: p.Current, Total: p.Total, Data: p}
	switch phase {
	case ScanPlaylists:
		u.Message = fmt.Sprintf("[%s] Scanned %s", counterText(p), p.Label)
	case ReplaceTracks:
		u.Message = fmt.Sprintf("[%s] Updating %s", counterText(p), p.Label)
	default:
		u.Message = p.Label
	}
	return u
}

func counterText(p models.Progress) string {
	if p.Total == 0 {
		return fmt.Sprintf("%d/?", p.Current)
	}
	return fmt.Sprintf("%d/%d", p.Current, p.Total)
}

// counter tracks completed units of work and reports every change.
// The report callback runs under the lock so reported values never go backwards.
type counter struct {
	mu      sync.Mutex
	current int
	total   int
	report  ProgressFunc
}

func newCounter(report ProgressFunc) *counter {
	return &counter{report: report}
}

// setTotal records the best known total without reporting.
func (c *counter) setTotal(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = n
}

func (c *counter) advance(n int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current += n
	if c.report != nil {
		c.report(models.Progress{Current: c.current, Total: c.total, Label: label})
	}
}
