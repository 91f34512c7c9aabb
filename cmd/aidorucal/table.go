package main

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Mess1Ass/AidoruSite/internal/model"
)

// renderMonthTable formats a month of events as an aligned text table.
// Column widths are measured with runewidth so CJK titles and venues line
// up with the ASCII header.
func renderMonthTable(key string, events []model.ScheduleEvent) string {
	headers := []string{"DATE", "TITLE", "LOCATION", "GROUPS"}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		location := ev.Location
		if ev.City != "" {
			location += " (" + ev.City + ")"
		}
		rows = append(rows, []string{
			ev.Date,
			ev.Title,
			location,
			strings.Join(ev.Groups, ", "),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	b.WriteString(key)
	b.WriteString("\n")

	writeRow := func(cells []string) {
		var line strings.Builder
		for i, cell := range cells {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	if len(rows) == 0 {
		b.WriteString("(no events)\n")
	}
	return b.String()
}
