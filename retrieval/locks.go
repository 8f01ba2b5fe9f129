package retrieval

import "sync"

// documentLocks hands out one mutex per document ID so that concurrent
// ingestions of the same document serialize while different documents
// proceed in parallel. Entries are reference counted and removed once the
// last holder releases, keeping the registry bounded by in-flight work.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*documentLock)}
}

// acquire blocks until the lock for documentID is held and returns the
// release function.
func (d *documentLocks) acquire(documentID string) func() {
	d.mu.Lock()
	l, ok := d.locks[documentID]
	if !ok {
		l = &documentLock{}
		d.locks[documentID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, documentID)
		}
		d.mu.Unlock()
	}
}
