// Package temporal turns free-text date and time phrases into concrete
// instants. Phrases arrive in English or Hebrew and are frequently partial or
// missing entirely; resolution never fails and instead degrades to documented
// defaults, because an ambiguous phrase is still an announceable event.
package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCivil is the fixed offset assumed when interpreting unqualified
// clock times. The groups this bot serves run on Israel summer time.
var DefaultCivil = time.FixedZone("UTC+3", 3*60*60)

const (
	// defaultHour is the wall-clock hour used when no time phrase is given.
	defaultHour = 8
	// EventDuration is the derived event length; no end phrase exists in the
	// input, so the end is always start + EventDuration.
	EventDuration = time.Hour
)

// phraseKind is the closed set of date-phrase categories, in precedence
// order. classify matches them top to bottom and the first hit wins.
type phraseKind int

const (
	kindAbsolute phraseKind = iota // D/M/Y or D.M.Y, day-first
	kindMonthDay                   // English month name + day number
	kindWeekday                    // weekday name, English or Hebrew, optional modifier
	kindTomorrow
	kindToday
	kindUnrecognized
)

// datePhrase is a classified phrase plus whatever the matcher extracted.
type datePhrase struct {
	kind    phraseKind
	day     int
	month   time.Month
	year    int
	weekday time.Weekday
	next    bool // "next" / "הבא" / "הקרוב" modifier present
	today   bool // phrase explicitly says today
}

var (
	absoluteRe = regexp.MustCompile(`(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})`)
	dayRe      = regexp.MustCompile(`\d{1,2}`)
	clockRe    = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?`)
)

var months = []struct {
	name  string
	month time.Month
}{
	{"january", time.January}, {"february", time.February}, {"march", time.March},
	{"april", time.April}, {"may", time.May}, {"june", time.June},
	{"july", time.July}, {"august", time.August}, {"september", time.September},
	{"october", time.October}, {"november", time.November}, {"december", time.December},
}

// weekdays lists both locales in a fixed order so that a phrase is always
// matched the same way. Longer Hebrew names come before their shorter
// near-overlaps.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"sunday", time.Sunday}, {"monday", time.Monday}, {"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday}, {"thursday", time.Thursday},
	{"friday", time.Friday}, {"saturday", time.Saturday},
	{"ראשון", time.Sunday}, {"שלישי", time.Tuesday}, {"רביעי", time.Wednesday},
	{"חמישי", time.Thursday}, {"שישי", time.Friday}, {"שני", time.Monday},
	{"שבת", time.Saturday},
}

// Resolve turns a date phrase and a time phrase into a start/end instant
// pair, relative to ref and interpreted in the given civil offset. A nil
// civil location falls back to DefaultCivil. Resolve never fails: anything
// it cannot parse resolves to the reference date at the default hour.
func Resolve(dateText, timeText string, ref time.Time, civil *time.Location) (start, end time.Time) {
	if civil == nil {
		civil = DefaultCivil
	}
	ref = ref.In(civil)

	date := resolveDate(dateText, ref)
	hour, minute := resolveClock(timeText)

	start = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, civil)
	return start, start.Add(EventDuration)
}

// resolveDate applies the classified phrase to the reference date.
func resolveDate(text string, ref time.Time) time.Time {
	p := classify(text)
	refDate := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	switch p.kind {
	case kindAbsolute:
		return time.Date(p.year, p.month, p.day, 0, 0, 0, 0, ref.Location())
	case kindMonthDay:
		return time.Date(ref.Year(), p.month, p.day, 0, 0, 0, 0, ref.Location())
	case kindWeekday:
		days := int(p.weekday) - int(ref.Weekday())
		switch {
		case p.next:
			days += 7
		case p.today:
			// An explicit "today" pins the reference date, weekday
			// match notwithstanding.
			days = 0
		case days <= 0:
			// A bare weekday never resolves to the reference date:
			// the same weekday rolls a full week forward.
			days += 7
		}
		return refDate.AddDate(0, 0, days)
	case kindTomorrow:
		return refDate.AddDate(0, 0, 1)
	default: // kindToday, kindUnrecognized
		return refDate
	}
}

// classify matches a date phrase against the known categories in precedence
// order. Matching is substring-based: real messages wrap the interesting
// part in filler ("נפגשים ביום שני", "see you next Friday").
func classify(text string) datePhrase {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return datePhrase{kind: kindUnrecognized}
	}

	if m := absoluteRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return datePhrase{kind: kindAbsolute, day: day, month: time.Month(month), year: year}
		}
	}

	for _, m := range months {
		if !strings.Contains(s, m.name) {
			continue
		}
		if d := dayRe.FindString(strings.Replace(s, m.name, "", 1)); d != "" {
			day, _ := strconv.Atoi(d)
			if day >= 1 && day <= 31 {
				return datePhrase{kind: kindMonthDay, month: m.month, day: day}
			}
		}
	}

	if wd, ok := matchWeekday(s); ok {
		return datePhrase{
			kind:    kindWeekday,
			weekday: wd,
			next:    containsAny(s, "next", "הבא", "הקרוב"),
			today:   saysToday(s),
		}
	}

	if containsAny(s, "tomorrow", "מחר") {
		return datePhrase{kind: kindTomorrow}
	}
	if saysToday(s) {
		return datePhrase{kind: kindToday}
	}
	return datePhrase{kind: kindUnrecognized}
}

// resolveClock extracts a wall-clock time from the phrase. Unrecognized or
// absent phrases default to 08:00. There is no am/pm inference: a bare "8"
// is hour 8.
func resolveClock(text string) (hour, minute int) {
	hour, minute = defaultHour, 0
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return hour, minute
	}

	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return hour, minute
	}
	h, _ := strconv.Atoi(m[1])
	min := 0
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}
	if h > 23 || min > 59 {
		return hour, minute
	}

	// Time phrases are short enough that a contains check is reliable
	// ("3 PM", "3pm", "7 p.m."). No am/pm inference happens without a marker.
	switch {
	case containsAny(s, "pm", "p.m") && h < 12:
		h += 12
	case containsAny(s, "am", "a.m") && h == 12:
		h = 0
	}
	return h, min
}

func matchWeekday(s string) (time.Weekday, bool) {
	for _, w := range weekdays {
		if strings.Contains(s, w.name) {
			return w.day, true
		}
	}
	return 0, false
}

func saysToday(s string) bool {
	return containsAny(s, "today", "היום")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
