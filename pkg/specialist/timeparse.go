package specialist

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// weekdays maps Spanish weekday names (and common accent-dropped variants)
// to time.Weekday.
var weekdays = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

var clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

// ParseSpanishTime resolves a customer's free-text time reference against
// ref (the moment "now"), for role C's slot-matching step. It understands:
//
//   - "mañana" (tomorrow), optionally combined with a clock time
//   - Spanish weekday names ("el jueves", "viernes"), resolved to the next
//     occurrence on or after ref
//   - explicit clock times, 12h ("3pm") or 24h ("15:00")
//
// TODO: "pasado mañana" and week-of phrasing ("la próxima semana") are not
// handled; extend here if a customer reply needs them.
func ParseSpanishTime(ref time.Time, text string) (time.Time, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return time.Time{}, false
	}

	if strings.Contains(lower, "pasado mañana") || strings.Contains(lower, "pasado manana") {
		return time.Time{}, false
	}

	day := ref
	dayFound := false

	if strings.Contains(lower, "mañana") || strings.Contains(lower, "manana") {
		day = ref.AddDate(0, 0, 1)
		dayFound = true
	} else {
		for name, wd := range weekdays {
			if strings.Contains(lower, name) {
				day = nextWeekday(ref, wd)
				dayFound = true
				break
			}
		}
	}

	hour, minute, clockFound := parseClock(lower)

	if !dayFound && !clockFound {
		return time.Time{}, false
	}
	if !clockFound {
		// Day-only reference: anchor to the start of business hours, the
		// caller is expected to match this against an actual free slot.
		hour, minute = 9, 0
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), true
}

// nextWeekday returns the next date on or after ref that falls on wd. If ref
// itself is wd, ref's own date is returned (today still counts as "el
// jueves" if it is Thursday).
func nextWeekday(ref time.Time, wd time.Weekday) time.Time {
	delta := int(wd) - int(ref.Weekday())
	if delta < 0 {
		delta += 7
	}
	return ref.AddDate(0, 0, delta)
}

// parseClock extracts an explicit clock time such as "3pm" or "15:00".
func parseClock(lower string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h > 23 {
		return 0, 0, false
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}
	meridiem := m[3]
	if meridiem != "" {
		if h > 12 || h == 0 {
			return 0, 0, false
		}
		switch strings.ToLower(meridiem) {
		case "pm":
			if h != 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
	}
	return h, minute, true
}

// SlotMatches reports whether candidate falls within slotStart's hour, the
// loosest granularity a customer's free-text reply can be held to.
func SlotMatches(candidate, slotStart time.Time) bool {
	return candidate.Year() == slotStart.Year() &&
		candidate.YearDay() == slotStart.YearDay() &&
		candidate.Hour() == slotStart.Hour()
}
