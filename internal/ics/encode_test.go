package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStart = time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 12, 25, 9, 0, 0, 0, time.UTC)
	testStamp = time.Date(2024, 12, 24, 12, 0, 0, 0, time.UTC)
)

func TestEncodeRecord(t *testing.T) {
	rec := Encode("uid-1", "Meeting", "", "", testStart, testEnd, testStamp)

	assert.Contains(t, rec, "BEGIN:VCALENDAR\r\n")
	assert.Contains(t, rec, "END:VCALENDAR\r\n")
	assert.Contains(t, rec, "BEGIN:VEVENT\r\n")
	assert.Contains(t, rec, "END:VEVENT\r\n")
	assert.Contains(t, rec, "VERSION:2.0\r\n")
	assert.Contains(t, rec, "UID:uid-1\r\n")
	assert.Contains(t, rec, "DTSTAMP:20241224T120000Z\r\n")
	assert.Contains(t, rec, "DTSTART:20241225T080000Z\r\n")
	assert.Contains(t, rec, "DTEND:20241225T090000Z\r\n")
	assert.Contains(t, rec, "SUMMARY:Meeting\r\n")
}

func TestEncodeConvertsToUTC(t *testing.T) {
	civil := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2024, 12, 25, 11, 0, 0, 0, civil)
	rec := Encode("uid-2", "Meeting", "", "", start, start.Add(time.Hour), testStamp)

	assert.Contains(t, rec, "DTSTART:20241225T080000Z")
	assert.Contains(t, rec, "DTEND:20241225T090000Z")
}

func TestEncodeEscapesNewlines(t *testing.T) {
	rec := Encode("uid-3", "Meeting", "first line\nsecond line", "", testStart, testEnd, testStamp)

	assert.Contains(t, rec, `first line\nsecond line`)
	// The real newline must not survive inside the field.
	for _, line := range strings.Split(rec, "\r\n") {
		if strings.HasPrefix(line, "DESCRIPTION") {
			assert.NotContains(t, line, "\n")
		}
	}
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	rec := Encode("uid-4", "", "", "", testStart, testEnd, testStamp)

	assert.NotContains(t, rec, "SUMMARY")
	assert.NotContains(t, rec, "DESCRIPTION")
	assert.NotContains(t, rec, "LOCATION")
	assert.Contains(t, rec, "DTSTART:20241225T080000Z")
}

func TestEncodeIncludesOptionalFields(t *testing.T) {
	rec := Encode("uid-5", "Picnic", "bring food", "Town Park", testStart, testEnd, testStamp)

	assert.Contains(t, rec, "SUMMARY:Picnic")
	assert.Contains(t, rec, "DESCRIPTION:bring food")
	assert.Contains(t, rec, "LOCATION:Town Park")
}

func TestGenerateUIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		uid := GenerateUID()
		require.NotEmpty(t, uid)
		require.False(t, seen[uid], "duplicate uid %s", uid)
		seen[uid] = true
	}
}
