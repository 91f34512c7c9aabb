// Package normalize converts heterogeneous date, time and text input into
// the canonical forms the backend stores: YYYY-MM-DD dates, HH:mm times,
// and ASCII punctuation.
//
// All conversions fail soft: values this package does not recognize are
// stringified as-is instead of producing an error, since the input is
// user-facing form data.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// dateLayouts are tried in order for free-form date strings. The JS-style
// layout covers strings produced by a generic date-to-string conversion
// (e.g. "Sat Mar 15 2025 14:00:00 GMT+0800").
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
	time.UnixDate,
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
	time.UnixDate,
}

// CanonicalDate converts v into a YYYY-MM-DD string.
//
// Accepted shapes: an already-canonical string, a time.Time (or *time.Time),
// or a recognizable date string. Calendar fields are taken from the value's
// own location; there is no UTC conversion, so a late-evening local date can
// never shift by a day. Unrecognized shapes are stringified as-is.
func CanonicalDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return canonicalDateString(d)
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02")
	case *time.Time:
		if d == nil || d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02")
	default:
		return canonicalDateString(fmt.Sprint(v))
	}
}

func canonicalDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if dateRe.MatchString(s) {
		return s
	}
	if t, ok := parseAny(stripZoneName(s), dateLayouts); ok {
		return t.Format("2006-01-02")
	}
	// Fail soft: hand the raw value back rather than erroring out.
	return s
}

// CanonicalTime converts v into an HH:mm string, with the same contract as
// CanonicalDate. Empty input yields the empty string.
func CanonicalTime(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return canonicalTimeString(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("15:04")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("15:04")
	default:
		return canonicalTimeString(fmt.Sprint(v))
	}
}

func canonicalTimeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if timeRe.MatchString(s) {
		return s
	}
	if t, ok := parseAny(stripZoneName(s), timeLayouts); ok {
		return t.Format("15:04")
	}
	return s
}

// parseAny tries each layout, keeping the parsed value's own calendar
// fields (no location conversion).
func parseAny(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripZoneName drops a trailing parenthesized zone name, as produced by
// JS Date stringification: "... GMT+0800 (China Standard Time)".
func stripZoneName(s string) string {
	if i := strings.LastIndex(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		return s[:i]
	}
	return s
}

// punctuation maps full-width / CJK punctuation to its ASCII equivalent.
// The table mirrors what the backend expects for stored titles, locations
// and group names regardless of the writer's input method.
var punctuation = strings.NewReplacer(
	"，", ",",
	"。", ".",
	"；", ";",
	"：", ":",
	"？", "?",
	"！", "!",
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"（", "(",
	"）", ")",
	"【", "[",
	"】", "]",
	"《", "<",
	"》", ">",
	"、", ",",
	"…", "...",
	"—", "-",
	"～", "~",
	"￥", "$",
	"％", "%",
	"＋", "+",
	"－", "-",
	"＝", "=",
	"×", "*",
	"÷", "/",
	"＜", "<",
	"＞", ">",
	"｜", "|",
	"＼", `\`,
	"／", "/",
	"＃", "#",
	"＠", "@",
	"＆", "&",
	"＾", "^",
	"｛", "{",
	"｝", "}",
	"｀", "`",
)

// Punctuation rewrites full-width punctuation marks to ASCII. It is total
// over strings and idempotent: every replacement result is plain ASCII,
// which the table never maps again.
func Punctuation(s string) string {
	if s == "" {
		return ""
	}
	return punctuation.Replace(s)
}
