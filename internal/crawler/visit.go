package crawler

import "sync"

// visitTracker remembers which match ids this run has already handed to the collector.
type visitTracker struct {
	seen sync.Map
}

// MarkIfNew records key and reports whether it was unseen.
func (t *visitTracker) MarkIfNew(key string) bool {
	if key == "" {
		return false
	}
	_, loaded := t.seen.LoadOrStore(key, struct{}{})
	return !loaded
}
