package schedule

import (
	"strings"

	"github.com/Mess1Ass/AidoruSite/internal/api"
	"github.com/Mess1Ass/AidoruSite/internal/model"
	"github.com/Mess1Ass/AidoruSite/internal/normalize"
)

// eventFromRecord maps a wire record into the client event shape. Missing
// arrays default to empty and text fields pass through the canonical
// normalizers, so a half-filled record never crashes the flow.
func eventFromRecord(r api.EventRecord) model.ScheduleEvent {
	ev := model.ScheduleEvent{
		ID:        r.RecordID(),
		Title:     r.Title,
		Date:      normalize.CanonicalDate(r.Date),
		Location:  r.Location,
		City:      r.City,
		Groups:    r.Groups,
		UpdatedAt: r.UpdatedAt,
	}
	if ev.Groups == nil {
		ev.Groups = []string{}
	}
	if ev.UpdatedAt == "" {
		ev.UpdatedAt = r.CreatedAt
	}

	ev.Images = make([]model.ImageAsset, 0, len(r.Imgs))
	for _, img := range r.Imgs {
		ev.Images = append(ev.Images, model.ImageAsset{
			Filename:    img.Filename,
			Ref:         img.URL,
			ContentType: img.ContentType,
			IsExisting:  true,
		})
	}

	ev.Timetable = make([]model.TimetableEntry, 0, len(r.Timetable))
	for _, slot := range r.Timetable {
		ev.Timetable = append(ev.Timetable, model.TimetableEntry{
			Group:           slot.Group,
			StartTime:       normalize.CanonicalTime(slot.StartTime),
			EndTime:         normalize.CanonicalTime(slot.EndTime),
			BonusLabel:      slot.BonusTime,
			BonusCategories: SplitBonusLabel(slot.BonusTime),
		})
	}

	return ev
}

// SplitBonusLabel decomposes a hyphen-joined bonus label into its category
// tags. Blanks are dropped; an empty label yields an empty set.
func SplitBonusLabel(label string) []string {
	out := []string{}
	for _, part := range strings.Split(label, "-") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinBonusLabel is the inverse of SplitBonusLabel.
func JoinBonusLabel(categories []string) string {
	kept := make([]string, 0, len(categories))
	for _, c := range categories {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, "-")
}
