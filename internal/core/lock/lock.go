// Package lock provides the system-wide mutual exclusion gate that
// ensures only one self-update executes at a time.
package lock

import (
	"sync"
	"time"
)

// Token proves possession of the system lock. Release requires the token
// whose UpdateID matches the current holder.
type Token struct {
	UpdateID string
}

// HolderInfo describes the current lock holder for observability.
type HolderInfo struct {
	UpdateID string
	HeldFor  time.Duration
	// Stale is set when the lock has been held beyond the configured
	// staleness threshold. The lock is never auto-released; stale
	// detection exists so operators know when force-release is warranted.
	Stale bool
}

// SystemLock is a non-blocking mutual exclusion gate. Callers must poll
// or queue externally; there are no waiting semantics.
type SystemLock struct {
	mu         sync.Mutex
	holderID   string
	lockedAt   time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// New creates a system lock with the given staleness threshold.
func New(staleAfter time.Duration) *SystemLock {
	return &SystemLock{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// TryAcquire returns a token iff no lock is currently held. When the lock
// is busy it returns nil together with information about the holder.
func (l *SystemLock) TryAcquire(updateID string) (*Token, *HolderInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holderID != "" {
		return nil, l.holderInfoLocked()
	}

	l.holderID = updateID
	l.lockedAt = l.now()
	return &Token{UpdateID: updateID}, nil
}

// Release clears the lock only if the token matches the current holder.
// It returns false (a no-op) for stale or mismatched tokens.
func (l *SystemLock) Release(token *Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token == nil || l.holderID != token.UpdateID {
		return false
	}
	l.holderID = ""
	l.lockedAt = time.Time{}
	return true
}

// ForceRelease clears the lock regardless of holder. Operator recovery
// only. Returns the update ID that held the lock, if any.
func (l *SystemLock) ForceRelease() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	holder := l.holderID
	l.holderID = ""
	l.lockedAt = time.Time{}
	return holder
}

// Holder returns information about the current holder, or nil when the
// lock is free.
func (l *SystemLock) Holder() *HolderInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holderID == "" {
		return nil
	}
	return l.holderInfoLocked()
}

// Locked reports whether the lock is currently held.
func (l *SystemLock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holderID != ""
}

func (l *SystemLock) holderInfoLocked() *HolderInfo {
	held := l.now().Sub(l.lockedAt)
	return &HolderInfo{
		UpdateID: l.holderID,
		HeldFor:  held,
		Stale:    l.staleAfter > 0 && held > l.staleAfter,
	}
}
