package garage

import "sync"

// Observer receives every snapshot published by a Store.
type Observer func(Snapshot)

// Store holds the single live Snapshot and notifies observers on change.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Notifications are delivered synchronously and in the order mutations
//     were applied. Observers may call Get but must not call Set, Update or
//     Subscribe, and must not block.
type Store struct {
	// notifyMu serialises mutate-and-notify so observers see transitions in order.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	current   Snapshot
	observers []observerEntry
	nextID    uint64
}

type observerEntry struct {
	id uint64
	fn Observer
}

// NewStore creates a Store holding initial.
func NewStore(initial Snapshot) *Store {
	return &Store{current: initial}
}

// Get returns the current snapshot.
func (s *Store) Get() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers an observer and immediately calls it with the current
// snapshot. The returned function removes the observer; calling it more than
// once is a no-op.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})
	current := s.current
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Set replaces the snapshot wholesale.
func (s *Store) Set(snapshot Snapshot) {
	s.Update(func(Snapshot) Snapshot { return snapshot })
}

// Update applies fn to the current snapshot and publishes the result.
// fn runs with the store locked and must not call back into the Store.
func (s *Store) Update(fn func(Snapshot) Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.current = fn(s.current)
	next := s.current
	observers := make([]Observer, len(s.observers))
	for i, o := range s.observers {
		observers[i] = o.fn
	}
	s.mu.Unlock()

	for _, observer := range observers {
		observer(next)
	}
}

// observerCount returns the number of registered observers.
func (s *Store) observerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

func (s *Store) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}
