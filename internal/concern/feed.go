package concern

import (
	"strings"
	"sync"
)

// Feed is the admin dashboard's in-memory view of all concerns, ordered by
// creation time descending and de-duplicated by id. Refresh results and live
// push events both mutate the list, so every mutation goes through one mutex
// (single-writer discipline).
type Feed struct {
	mu        sync.Mutex
	concerns  []Concern
	newCount  int
	connected bool
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Replace swaps in a full refetch atomically and resets the new-submission
// counter. The rows are expected to arrive already ordered from the backend.
func (f *Feed) Replace(rows []Concern) {
	dup := make([]Concern, len(rows))
	copy(dup, rows)
	f.mu.Lock()
	f.concerns = dup
	f.newCount = 0
	f.mu.Unlock()
}

// Push prepends a live-inserted record and bumps the new-submission counter.
// A record whose id is already present is dropped. A push older than the
// current head is still prepended; the next Replace restores full ordering.
func (f *Feed) Push(c Concern) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.concerns {
		if existing.ID == c.ID {
			return false
		}
	}
	f.concerns = append([]Concern{c}, f.concerns...)
	f.newCount++
	return true
}

// Snapshot returns a copy of the full list.
func (f *Feed) Snapshot() []Concern {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Concern, len(f.concerns))
	copy(out, f.concerns)
	return out
}

// Filter projects the current list by case-insensitive substring match
// against group number and project title. It never mutates the list and an
// empty query returns everything.
func (f *Feed) Filter(query string) []Concern {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return f.Snapshot()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Concern
	for _, c := range f.concerns {
		if strings.Contains(strings.ToLower(c.GroupNumber), q) ||
			strings.Contains(strings.ToLower(c.ProjectTitle), q) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the total number of loaded concerns.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.concerns)
}

// NewCount returns submissions received via push since the last Replace.
func (f *Feed) NewCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newCount
}

// SetConnected records the live-subscription status for the UI indicator.
func (f *Feed) SetConnected(up bool) {
	f.mu.Lock()
	f.connected = up
	f.mu.Unlock()
}

// Connected reports whether the live subscription is up.
func (f *Feed) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}
