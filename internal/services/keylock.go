package services

import (
	"sort"
	"sync"
)

// keyedMutex provides one mutex per key so that operations on different
// orders or inventory items never block each other, while concurrent
// operations on the same entity are serialized.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given key, creating it on first use.
func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()
	l.Lock()
}

// Unlock releases the mutex for the given key.
func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	l := k.locks[key]
	k.mu.Unlock()
	l.Unlock()
}

// LockAll acquires the mutexes for all given keys in sorted order and
// returns the deduplicated keys actually locked. The fixed acquisition order
// prevents deadlock between operations that reference overlapping item sets.
func (k *keyedMutex) LockAll(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	uniq := sorted[:0]
	for _, key := range sorted {
		if len(uniq) == 0 || uniq[len(uniq)-1] != key {
			uniq = append(uniq, key)
		}
	}
	for _, key := range uniq {
		k.Lock(key)
	}
	return uniq
}

// UnlockAll releases mutexes previously acquired by LockAll.
func (k *keyedMutex) UnlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		k.Unlock(keys[i])
	}
}
