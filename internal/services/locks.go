package services

import "sync"

// keyedMutex serializes writers per customer id. LockAll excludes every
// per-id writer, for operations that touch the whole store.
type keyedMutex struct {
	all   sync.RWMutex
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until the caller is the only writer for key and returns the
// matching unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.all.RLock()

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

		k.all.RUnlock()
	}
}

func (k *keyedMutex) LockAll() func() {
	k.all.Lock()
	return k.all.Unlock
}

// held reports how many ids currently have a lock entry.
func (k *keyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
