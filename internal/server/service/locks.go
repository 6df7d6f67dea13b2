package service

import "sync"

// userLocks serializes uploads per account. Entries are dropped once no
// caller holds or waits for them.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (l *userLocks) Lock(userID string) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &userLock{}
		l.locks[userID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.Lock()
	return func() {
		lk.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

func (l *userLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
