package service

import "sync"

// keyLocks hands out one mutex per session key. Entries are dropped once nobody
// holds or waits for them.
type keyLocks struct {
	mu    sync.Mutex
	locks map[SessionKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[SessionKey]*keyLock)}
}

// Lock blocks until the key is free and returns the matching unlock func.
func (k *keyLocks) Lock(key SessionKey) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
