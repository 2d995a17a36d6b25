// Package keylock hands out one mutex per key. The ledger uses it for
// delegates and the registry for recipients, so unrelated keys never
// contend with each other.
package keylock

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v2"
)

// Locker is a table of per-key mutexes. Entries are created on first use and
// kept for the lifetime of the Locker. The zero value is not usable.
type Locker struct {
	locks *xsync.MapOf[string, *sync.Mutex]
}

// New returns an empty Locker.
func New() *Locker {
	return &Locker{locks: xsync.NewMapOf[*sync.Mutex]()}
}

func (l *Locker) mutex(key []byte) *sync.Mutex {
	mu, _ := l.locks.LoadOrCompute(string(key), func() *sync.Mutex {
		return new(sync.Mutex)
	})
	return mu
}

// Lock acquires the mutex of key and returns the matching unlock function.
func (l *Locker) Lock(key []byte) (unlock func()) {
	mu := l.mutex(key)
	mu.Lock()
	return mu.Unlock
}

// LockAll acquires the mutexes of every distinct key in ascending byte order,
// so two callers locking overlapping sets cannot deadlock. The returned
// function releases them in reverse order.
func (l *Locker) LockAll(keys [][]byte) (unlock func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s := string(k)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		mu := l.mutex([]byte(k))
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Len returns the number of keys that have been locked at least once.
func (l *Locker) Len() int {
	return l.locks.Size()
}
