package review

import "sync"

// Tracker keeps the draft of the most recent request. Each request takes a
// token from Begin; a result is accepted only if no newer request has begun,
// so slow responses that arrive out of order are dropped.
type Tracker struct {
	mu      sync.Mutex
	next    uint64
	current uint64 // token whose result is shown
	draft   string
}

// Begin returns a new, strictly increasing token.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	return t.next
}

// Commit stores draft if token is the newest issued one. It reports whether
// the draft was accepted.
func (t *Tracker) Commit(token uint64, draft string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.next || token <= t.current {
		return false
	}
	t.current = token
	t.draft = draft
	return true
}

// Latest returns the accepted draft and its token (0 when nothing committed yet).
func (t *Tracker) Latest() (string, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft, t.current
}
