// Package seen keeps the set of event ids that already produced an alert.
//
// Both backends hold the full set in memory for O(1) membership and write
// through to durable storage on every Add. A failed write leaves the in-memory
// entry in place: the process keeps deduplicating for the rest of its life and
// only a restart can re-notify.
package seen

// Store is the seen-set contract used by the monitor loop.
type Store interface {
	Contains(id string) bool
	// Add records id and persists the set. The id stays in memory even when
	// the returned error is non-nil.
	Add(id string) error
	Len() int
	Close() error
}
