package schedule

import (
	"fmt"
	"regexp"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

var monthKeyRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// MonthKey builds the YYYY-MM cache key for a calendar month.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ValidMonthKey reports whether s is a well-formed YYYY-MM key.
func ValidMonthKey(s string) bool {
	return monthKeyRe.MatchString(s)
}

// MonthCache holds, per YYYY-MM key, the event list returned by the last
// successful fetch for that month.
//
// Entries carry no TTL. An entry stays valid until the mutation that
// invalidated it evicts that month's key; serving anything stale after a
// mutation would show an incorrect event list, so eviction is a correctness
// requirement here, not an optimization. Only the sync engine writes to the
// cache.
type MonthCache struct {
	entries map[string][]model.ScheduleEvent
}

func NewMonthCache() *MonthCache {
	return &MonthCache{entries: make(map[string][]model.ScheduleEvent)}
}

// Get returns the cached event list for key, if present.
func (c *MonthCache) Get(key string) ([]model.ScheduleEvent, bool) {
	events, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return cloneEvents(events), true
}

// Put stores the event list for key, replacing any previous entry.
func (c *MonthCache) Put(key string, events []model.ScheduleEvent) {
	c.entries[key] = cloneEvents(events)
}

// Evict removes the entry for key. Eviction is scoped: other months are
// never touched.
func (c *MonthCache) Evict(key string) {
	delete(c.entries, key)
}

// Len returns the number of cached months.
func (c *MonthCache) Len() int {
	return len(c.entries)
}

func cloneEvents(events []model.ScheduleEvent) []model.ScheduleEvent {
	out := make([]model.ScheduleEvent, len(events))
	copy(out, events)
	return out
}
