package service

import "sync"

// titleLocks provides per-title mutual exclusion. Operations on
// different titles never serialize against one another; operations on
// the same title that mutate meeting existence or recording status
// hold the title's lock across the whole provider round trip.
type titleLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTitleLocks() *titleLocks {
	return &titleLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a title and returns its unlock function
func (t *titleLocks) Lock(title string) func() {
	t.mu.Lock()
	l, ok := t.locks[title]
	if !ok {
		l = &sync.Mutex{}
		t.locks[title] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
