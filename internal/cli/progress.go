package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskplan/pkg/search"
)

// heartbeat is the interval between progress log lines for long searches.
const heartbeat = 10 * time.Second

// searchReporter turns search progress callbacks into spinner updates and
// periodic log lines. Parallel A* reports from several workers, so the
// reporter locks around its state.
type searchReporter struct {
	logger  *log.Logger
	spinner *Spinner // may be nil
	timeout time.Duration

	mu      sync.Mutex
	start   time.Time
	lastLog time.Time
	last    search.Stats
}

// newSearchReporter creates a reporter that logs through logger and, if
// spinner is non-nil, mirrors the counters in its message.
func newSearchReporter(logger *log.Logger, spinner *Spinner, timeout time.Duration) *searchReporter {
	now := time.Now()
	return &searchReporter{
		logger:  logger,
		spinner: spinner,
		timeout: timeout,
		start:   now,
		lastLog: now,
	}
}

// onProgress is passed to the search as its Progress callback.
func (r *searchReporter) onProgress(stats search.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = stats

	if r.spinner != nil {
		r.spinner.SetMessage(fmt.Sprintf("Searching... %d expanded, %d generated", stats.Expanded, stats.Generated))
	}

	if time.Since(r.lastLog) < heartbeat {
		return
	}
	elapsed := time.Since(r.start).Truncate(time.Second)
	if r.timeout > 0 {
		r.logger.Infof("Searching... %v/%v elapsed, %d expanded (peak %d resident)",
			elapsed, r.timeout, stats.Expanded, stats.PeakResident)
	} else {
		r.logger.Infof("Searching... %v elapsed, %d expanded (peak %d resident)",
			elapsed, stats.Expanded, stats.PeakResident)
	}
	r.lastLog = time.Now()
}

// lastStats returns the most recent counters reported.
func (r *searchReporter) lastStats() search.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
