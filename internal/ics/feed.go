// Package ics bridges the schedule calendar and the iCalendar world: it
// renders a month of events as a subscribable feed and imports external
// feeds into event drafts.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/Mess1Ass/AidoruSite/internal/log"
	"github.com/Mess1Ass/AidoruSite/internal/model"
)

// MonthFeed renders the given events as an iCalendar document. Each
// schedule event becomes an all-day VEVENT; events whose date is not
// canonical are logged and skipped rather than failing the whole feed.
func MonthFeed(key string, events []model.ScheduleEvent) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//AidoruSite//schedule//EN")

	now := time.Now()
	for _, ev := range events {
		day, err := time.ParseInLocation("2006-01-02", ev.Date, time.Local)
		if err != nil {
			appLog.Error("feed: skipping event with non-canonical date", err, "id", ev.ID, "date", ev.Date)
			continue
		}

		ve := cal.AddEvent(fmt.Sprintf("%s@aidorusite", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(ev.Title)

		location := ev.Location
		if ev.City != "" {
			location += ", " + ev.City
		}
		if location != "" {
			ve.SetLocation(location)
		}
		if desc := describeEvent(ev); desc != "" {
			ve.SetDescription(desc)
		}
	}

	appLog.Info("feed rendered", "month", key, "event_count", len(events))
	return cal.Serialize()
}

// describeEvent summarizes groups and timetable slots for the VEVENT
// description.
func describeEvent(ev model.ScheduleEvent) string {
	var lines []string
	if len(ev.Groups) > 0 {
		lines = append(lines, strings.Join(ev.Groups, " / "))
	}
	for _, slot := range ev.Timetable {
		line := slot.Group
		if slot.StartTime != "" || slot.EndTime != "" {
			line += " " + slot.StartTime + "-" + slot.EndTime
		}
		if slot.BonusLabel != "" {
			line += " [" + slot.BonusLabel + "]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
