package ics

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
)

// maxImportOccurrences caps recurrence expansion per VEVENT so a malformed
// rule cannot flood the calendar.
const maxImportOccurrences = 500

// Draft is an importable event candidate parsed from an external feed,
// ready to be handed to the sync engine's create operation.
type Draft struct {
	Title    string
	Date     string // canonical YYYY-MM-DD
	Location string
}

// FetchFeed retrieves an ICS document. The month cache owns all schedule
// caching, so this is a plain conditional-free GET.
func FetchFeed(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("feed fetch: " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// ImportMonth parses an ICS payload and returns one draft per occurrence
// falling inside the given calendar month, expanding RRULE recurrences and
// honoring EXDATE exceptions. Individual VEVENTs that fail to parse are
// logged and skipped; the rest of the feed still imports.
func ImportMonth(body []byte, year, month int) ([]Draft, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	windowStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	windowEnd := windowStart.AddDate(0, 1, 0)

	drafts := make([]Draft, 0)
	for _, ve := range cal.Events() {
		out, err := expandVEvent(ve, windowStart, windowEnd)
		if err != nil {
			appLog.Error("import: skipping vevent", err)
			continue
		}
		drafts = append(drafts, out...)
	}

	appLog.Info("feed imported", "month", MonthWindowKey(year, month), "draft_count", len(drafts))
	return drafts, nil
}

// MonthWindowKey formats the YYYY-MM label used in import logging.
func MonthWindowKey(year, month int) string {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

func expandVEvent(ve *ical.VEvent, windowStart, windowEnd time.Time) ([]Draft, error) {
	summary := propValue(ve, ical.ComponentPropertySummary)
	if summary == "" {
		return nil, errors.New("missing SUMMARY")
	}
	location := propValue(ve, ical.ComponentPropertyLocation)

	dtstart, _ := ve.GetStartAt()
	if dtstart.IsZero() {
		return nil, errors.New("missing DTSTART")
	}

	rawRRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRRule == "" {
		// Single event: keep it only when it falls inside the window.
		if dtstart.Before(windowStart) || !dtstart.Before(windowEnd) {
			return nil, nil
		}
		return []Draft{makeDraft(summary, location, dtstart)}, nil
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(dtstart)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(dtstart.Location()))
	}

	occs := set.Between(
		windowStart.In(dtstart.Location()),
		windowEnd.In(dtstart.Location()).Add(-time.Second),
		true,
	)
	if len(occs) > maxImportOccurrences {
		occs = occs[:maxImportOccurrences]
		appLog.Error("import: recurrence expansion truncated",
			errors.New("max occurrences reached"), "summary", summary, "cap", maxImportOccurrences)
	}

	out := make([]Draft, 0, len(occs))
	for _, occ := range occs {
		out = append(out, makeDraft(summary, location, occ))
	}
	return out, nil
}

func makeDraft(summary, location string, start time.Time) Draft {
	return Draft{
		Title:    summary,
		Date:     start.Format("2006-01-02"),
		Location: location,
	}
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// exDates collects EXDATE values; best effort, unparseable entries are
// ignored.
func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseFeedTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseFeedTime parses the basic ICS DATE / DATE-TIME / UTC forms.
func parseFeedTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
