// Package lock provides keyed in-process locking. Balance mutations are
// serialized per user and session mutations per table, on top of the
// database row locks, so that two requests for the same key never race
// inside one process.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// keyedMutex wraps a mutex with reference counting for pooling.
type keyedMutex struct {
	mu       sync.Mutex
	refCount int
}

// KeyedLock provides per-key locking to prevent race conditions during
// balance operations and session mutations.
type KeyedLock struct {
	locks sync.Map // map[string]*keyedMutex
	pool  sync.Pool
}

// NewKeyedLock creates a new KeyedLock instance.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		pool: sync.Pool{
			New: func() any {
				return &keyedMutex{}
			},
		},
	}
}

// UserKey builds the lock key for a user's balance.
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// TableKey builds the lock key for a game table's session.
func TableKey(game string, tableNo int) string {
	return fmt.Sprintf("table:%s:%d", game, tableNo)
}

// getLock retrieves or creates a mutex for the given key.
func (kl *KeyedLock) getLock(key string) *keyedMutex {
	if v, ok := kl.locks.Load(key); ok {
		return v.(*keyedMutex)
	}

	newLock := kl.pool.Get().(*keyedMutex)
	newLock.refCount = 0

	actual, loaded := kl.locks.LoadOrStore(key, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		kl.pool.Put(newLock)
	}
	return actual.(*keyedMutex)
}

// Lock acquires the lock for a key.
func (kl *KeyedLock) Lock(key string) {
	lock := kl.getLock(key)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a key.
func (kl *KeyedLock) Unlock(key string) {
	if v, ok := kl.locks.Load(key); ok {
		lock := v.(*keyedMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (kl *KeyedLock) TryLock(key string) bool {
	lock := kl.getLock(key)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// LockWithTimeout attempts to acquire the lock within the timeout.
// Returns true if the lock was acquired, false if the timeout elapsed.
func (kl *KeyedLock) LockWithTimeout(ctx context.Context, key string, timeout time.Duration) bool {
	lock := kl.getLock(key)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		lock.refCount++
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine will eventually acquire; release it then.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes a function while holding the key's lock.
func (kl *KeyedLock) WithLock(key string, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}

// WithLockContext executes a function while holding the key's lock,
// with context support for cancellation.
func (kl *KeyedLock) WithLockContext(ctx context.Context, key string, timeout time.Duration, fn func() error) error {
	if !kl.LockWithTimeout(ctx, key, timeout) {
		return ErrLockTimeout
	}
	defer kl.Unlock(key)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}

// IsLocked checks if a key currently has an active lock.
// Note: this is a point-in-time check and may change immediately after.
func (kl *KeyedLock) IsLocked(key string) bool {
	if v, ok := kl.locks.Load(key); ok {
		lock := v.(*keyedMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
