package schedule

import (
	"testing"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

func TestMonthKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		year, month int
		want        string
	}{
		{2026, 3, "2026-03"},
		{2026, 12, "2026-12"},
		{999, 1, "0999-01"},
	}
	for _, tc := range cases {
		if got := MonthKey(tc.year, tc.month); got != tc.want {
			t.Errorf("MonthKey(%d, %d) = %q, want %q", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestValidMonthKey(t *testing.T) {
	t.Parallel()

	valid := []string{"2026-03", "1999-12", "0001-01"}
	invalid := []string{"", "2026-3", "2026/03", "202603", "2026-031", "x2026-03"}

	for _, s := range valid {
		if !ValidMonthKey(s) {
			t.Errorf("ValidMonthKey(%q) = false", s)
		}
	}
	for _, s := range invalid {
		if ValidMonthKey(s) {
			t.Errorf("ValidMonthKey(%q) = true", s)
		}
	}
}

func TestMonthCachePutGetEvict(t *testing.T) {
	t.Parallel()

	c := NewMonthCache()
	if _, ok := c.Get("2026-03"); ok {
		t.Fatal("empty cache reported a hit")
	}

	march := []model.ScheduleEvent{{ID: "a", Date: "2026-03-07"}}
	april := []model.ScheduleEvent{{ID: "b", Date: "2026-04-01"}}
	c.Put("2026-03", march)
	c.Put("2026-04", april)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	got, ok := c.Get("2026-03")
	if !ok || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Get(2026-03) = %v, %v", got, ok)
	}

	// Eviction is scoped: the other month's entry survives.
	c.Evict("2026-03")
	if _, ok := c.Get("2026-03"); ok {
		t.Error("evicted key still hits")
	}
	if _, ok := c.Get("2026-04"); !ok {
		t.Error("eviction touched an unrelated month")
	}

	// Evicting an absent key is a no-op.
	c.Evict("2020-01")
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMonthCacheIsolatesCallerSlices(t *testing.T) {
	t.Parallel()

	c := NewMonthCache()
	src := []model.ScheduleEvent{{ID: "a", Title: "original"}}
	c.Put("2026-03", src)

	// Mutating the slice given to Put must not reach the cache.
	src[0].Title = "mutated"
	got, _ := c.Get("2026-03")
	if got[0].Title != "original" {
		t.Errorf("cache shares the caller's backing array")
	}

	// Mutating the slice returned by Get must not reach the cache either.
	got[0].Title = "mutated again"
	again, _ := c.Get("2026-03")
	if again[0].Title != "original" {
		t.Errorf("Get returns a shared slice")
	}
}
