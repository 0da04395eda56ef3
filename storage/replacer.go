package storage

// Replacer is the eviction oracle a PoolInstance consults once its free
// list is exhausted. It knows only frame ids, never page ids or page
// contents; the pool instance is solely responsible for keeping a
// Replacer's candidate set in sync with which frames are resident and
// unpinned.
type Replacer interface {
	// Victim selects a frame to evict.
	// Returns the frame ID and true if a victim was found, false if the
	// replacer holds no eviction candidates.
	Victim() (uint32, bool)

	// Pin removes a frame from eviction candidacy. No-op if absent.
	Pin(frameID uint32)

	// Unpin makes a frame an eviction candidate. No-op if already present.
	Unpin(frameID uint32)

	// Size returns the number of current eviction candidates.
	Size() uint32
}

// NewReplacer builds a Replacer for the named policy. "lru" is the only
// policy this package ships today; the indirection exists so a
// PoolInstance never has to change when a second policy is added, it
// just names it here.
func NewReplacer(algorithm string, capacity uint32) Replacer {
	switch algorithm {
	case "lru":
		return NewLRUReplacer(capacity)
	default:
		return NewLRUReplacer(capacity)
	}
}
