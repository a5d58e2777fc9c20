// Package ics serializes resolved events into iCalendar records. The output
// is what calendar-import tooling expects byte for byte: CRLF terminated
// lines, compact UTC timestamps (20060102T150405Z) and RFC 5545 text
// escaping, so an embedded newline becomes the literal two-character "\n".
package ics

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const prodID = "-//chatcal//EN"

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}

// Encode builds a single-event VCALENDAR. Title, description and location
// lines are emitted only when the field is non-empty; start, end, the
// generation stamp and the uid are always present. Encode is deterministic
// in its inputs and never fails.
func Encode(uid, title, description, location string, start, end, stamp time.Time) string {
	event := ical.NewComponent(ical.CompEvent)
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	if title != "" {
		event.Props.SetText(ical.PropSummary, title)
	}
	if description != "" {
		event.Props.SetText(ical.PropDescription, description)
	}
	if location != "" {
		event.Props.SetText(ical.PropLocation, location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Children = append(cal.Children, event)

	var buf strings.Builder
	// Encoding an in-memory calendar with all required properties set
	// cannot fail; the error return exists for writer failures.
	_ = ical.NewEncoder(&buf).Encode(cal)
	return buf.String()
}
