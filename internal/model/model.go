package model

// ScheduleEvent is one live performance entry on the calendar.
// Date is always a canonical YYYY-MM-DD string before the event is stored
// locally or submitted to the backend.
type ScheduleEvent struct {
	ID       string // server-assigned, opaque
	Title    string
	Date     string
	Location string
	City     string // optional

	// Groups holds the performing group names. Order is not meaningful;
	// blank names are filtered out before submission.
	Groups []string

	Timetable []TimetableEntry
	Images    []ImageAsset

	UpdatedAt string
}

// MonthKey returns the YYYY-MM cache key derived from the event's date,
// or "" when the date is not canonical.
func (e ScheduleEvent) MonthKey() string {
	if len(e.Date) < 7 {
		return ""
	}
	return e.Date[:7]
}

// TimetableEntry is one group's performance slot within a schedule event.
//
// BonusLabel carries the raw hyphen-joined wire string (e.g.
// "pre-bonus-end-bonus"). BonusCategories is the same information decomposed
// into individual tags. Both are kept as explicit fields; nothing is guessed
// from the label's shape at display time.
type TimetableEntry struct {
	Group     string
	StartTime string // canonical HH:mm, or empty
	EndTime   string // canonical HH:mm, or empty

	BonusLabel      string
	BonusCategories []string
}

// ImageAsset is one image attached to an event being authored or viewed.
type ImageAsset struct {
	Filename string

	// Ref is the displayable reference: a durable server-relative URL for
	// persisted images, or a transient mem:// handle for staged uploads.
	Ref string

	ContentType string

	// Payload holds the binary content for staged uploads only; persisted
	// images carry no payload.
	Payload []byte

	// IsExisting is the single source of truth distinguishing "already on
	// the server" from "pending upload".
	IsExisting bool
}

// Group is the profile record behind /group/name/ and /group/update/.
// The calendar core does not depend on it; it is carried for the group page.
type Group struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	EnglishName string   `json:"englishName,omitempty"`
	Description string   `json:"description,omitempty"`
	Avatar      string   `json:"avatar,omitempty"`
	FoundedDate string   `json:"foundedDate,omitempty"`
	Members     []string `json:"members,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
