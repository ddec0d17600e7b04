package service

import "sync"

// EventLocker serializes work on the same id inside this process.
// Booking keys it by event id, scheduling by venue id.
type EventLocker struct {
	mu    sync.Mutex
	locks map[int64]*eventLock
}

type eventLock struct {
	mu   sync.Mutex
	refs int
}

// NewEventLocker creates an empty locker
func NewEventLocker() *EventLocker {
	return &EventLocker{locks: make(map[int64]*eventLock)}
}

// Lock blocks until eventID is free and returns the matching unlock function
func (l *EventLocker) Lock(eventID int64) func() {
	l.mu.Lock()
	lock, ok := l.locks[eventID]
	if !ok {
		lock = &eventLock{}
		l.locks[eventID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			lock.mu.Unlock()
			l.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(l.locks, eventID)
			}
			l.mu.Unlock()
		})
	}
}

// Len returns the number of events currently locked or waited on
func (l *EventLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
