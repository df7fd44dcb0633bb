// Package diag writes the line-prefixed warnings kubiq emits on stderr.
package diag

import (
	"fmt"
	"io"
	"time"
)

// Sink collects pushdown and retry diagnostics. SuppressPushdown mutes the
// "pushdown:" prefix only; retry summaries are always written.
type Sink struct {
	W                io.Writer
	SuppressPushdown bool
}

// NonPushable reports a predicate the planner could not translate to a
// server-side selector.
func (s *Sink) NonPushable(path string) {
	if s == nil || s.SuppressPushdown {
		return
	}
	fmt.Fprintf(s.W, "pushdown: not pushable: %s\n", path)
}

// SelectorFallback reports that a list call was retried without selectors.
func (s *Sink) SelectorFallback(reason string) {
	if s == nil || s.SuppressPushdown {
		return
	}
	fmt.Fprintf(s.W, "pushdown: selector fallback: %s\n", reason)
}

// RetrySummary reports a terminal transient failure after all retry
// attempts ran out.
func (s *Sink) RetrySummary(attempts int, elapsed time.Duration, lastKind string) {
	if s == nil {
		return
	}
	fmt.Fprintf(s.W, "retry: attempts=%d, elapsed=%d, last=%s\n",
		attempts, elapsed.Milliseconds(), lastKind)
}
