package reconcile

import "sync"

// holderLocks serializes reconciliation runs per account holder within the
// process. Entries are dropped once no run holds or waits for them.
type holderLocks struct {
	mu    sync.Mutex
	locks map[string]*holderLock
}

type holderLock struct {
	mu   sync.Mutex
	refs int
}

func newHolderLocks() *holderLocks {
	return &holderLocks{locks: make(map[string]*holderLock)}
}

// lock blocks until the holder's lock is acquired and returns its release func.
func (h *holderLocks) lock(holderID string) func() {
	h.mu.Lock()
	l, ok := h.locks[holderID]
	if !ok {
		l = &holderLock{}
		h.locks[holderID] = l
	}
	l.refs++
	h.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, holderID)
		}
		h.mu.Unlock()
	}
}

func (h *holderLocks) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.locks)
}
