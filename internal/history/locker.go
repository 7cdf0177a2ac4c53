package history

import "sync"

// Locker serializes read-modify-write cycles on one user's history.
// Different users never share a mutex.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*keyLock)}
}

// Lock blocks until userID is free and returns the matching unlock.
func (l *Locker) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	k, ok := l.locks[userID]
	if !ok {
		k = &keyLock{}
		l.locks[userID] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Unlock()

			l.mu.Lock()
			k.refs--
			if k.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
