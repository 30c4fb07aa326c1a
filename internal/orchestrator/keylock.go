package orchestrator

import (
	"context"
	"sync"
)

// keyLock serializes work per key. Entries are dropped when the last holder
// or waiter releases, so the map only holds keys in use.
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

// refLock is a one-slot semaphore so waiters can give up on ctx.
type refLock struct {
	slot chan struct{}
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free or ctx is done. On success it returns the
// matching unlock func. On ctx expiry it returns ctx.Err() and holds nothing.
func (k *keyLock) Lock(ctx context.Context, key string) (unlock func(), err error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{slot: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}
	return func() {
		<-l.slot
		k.release(key, l)
	}, nil
}

func (k *keyLock) release(key string, l *refLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
