package schedule

import (
	"sync"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

// Store owns the client-visible schedule state: the in-memory event list
// for the month being viewed, plus the month cache. There is no ambient
// global state; the engine is the only writer.
//
// The mutex makes a mutation and its cache eviction one atomic step as seen
// by concurrent readers (the companion server, the refresh loop): no reader
// can observe the mutated list together with the stale cache entry.
type Store struct {
	mu     sync.Mutex
	events []model.ScheduleEvent
	cache  *MonthCache
}

func NewStore() *Store {
	return &Store{
		events: []model.ScheduleEvent{},
		cache:  NewMonthCache(),
	}
}

// Events returns a snapshot of the in-memory event list.
func (s *Store) Events() []model.ScheduleEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEvents(s.events)
}

// EventByID returns a copy of the event with the given identifier.
func (s *Store) EventByID(id string) (model.ScheduleEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.ScheduleEvent{}, false
}

// CachedMonths returns how many month entries are currently cached.
func (s *Store) CachedMonths() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
