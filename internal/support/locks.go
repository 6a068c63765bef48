package support

import (
	"context"
	"sync"
)

// userLocks serializes exchanges per user. Entries are reference counted and
// removed once nobody holds or waits on them.
type userLocks struct {
	mu      sync.Mutex
	entries map[string]*userLock
}

type userLock struct {
	ch   chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{entries: make(map[string]*userLock)}
}

// Lock blocks until the user's lock is held or ctx ends.
func (l *userLocks) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[userID]
	if !ok {
		e = &userLock{ch: make(chan struct{}, 1)}
		l.entries[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(userID, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(userID, e)
		return nil, ctx.Err()
	}
}

func (l *userLocks) release(userID string, e *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, userID)
	}
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
