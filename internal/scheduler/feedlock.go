package scheduler

import "sync"

// FeedLocks serializes update jobs per feed. A firing that finds the
// feed's lock held is dropped rather than queued; the overrunning job
// keeps going and the next firing picks up whatever it missed. Locks
// are created lazily on first use and never removed, which is fine for
// the feed counts this daemon sees.
type FeedLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewFeedLocks returns an empty lock registry.
func NewFeedLocks() *FeedLocks {
	return &FeedLocks{locks: make(map[int64]*sync.Mutex)}
}

// TryLock attempts to take the lock for feedID without blocking.
// It reports whether the lock was acquired.
func (f *FeedLocks) TryLock(feedID int64) bool {
	return f.lockFor(feedID).TryLock()
}

// Unlock releases the lock for feedID. It must only be called after a
// successful TryLock for the same feed.
func (f *FeedLocks) Unlock(feedID int64) {
	f.lockFor(feedID).Unlock()
}

func (f *FeedLocks) lockFor(feedID int64) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.locks[feedID]
	if !ok {
		l = &sync.Mutex{}
		f.locks[feedID] = l
	}
	return l
}
