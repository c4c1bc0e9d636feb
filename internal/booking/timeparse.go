package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDate resolves a free-text date expression to YYYY-MM-DD.
// Returns "" when no date can be extracted. Calendar dates only, no
// timezone conversion.
func ParseDate(text string) string {
	return parseDateAt(text, time.Now())
}

// ParseTime resolves a free-text time expression to HH:MM (24-hour).
// Returns "" when no time can be extracted.
func ParseTime(text string) string {
	return parseTimeAt(text)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const weekdayAlt = `sunday|monday|tuesday|wednesday|thursday|friday|saturday`
const monthAlt = `january|jan|february|feb|march|mar|april|apr|may|june|jun|july|jul|august|aug|september|sept|sep|october|oct|november|nov|december|dec`

var (
	nextWeekdayRE  = regexp.MustCompile(`next\s+(` + weekdayAlt + `)`)
	thisWeekdayRE  = regexp.MustCompile(`this\s+(` + weekdayAlt + `)`)
	monthDayRE     = regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayMonthRE     = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\b`)
	isoDateRE      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	usSlashDateRE  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	genericLayouts = []string{
		"January 2, 2006",
		"Jan 2, 2006",
		"January 2 2006",
		"2 January 2006",
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
	}
)

// parseDateAt resolves text against a reference clock. Resolution order is
// fixed; the first rule that matches wins.
func parseDateAt(text string, now time.Time) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if lower == "today" {
		return formatDate(today)
	}
	if lower == "tomorrow" {
		return formatDate(today.AddDate(0, 0, 1))
	}
	if strings.Contains(lower, "day after tomorrow") {
		return formatDate(today.AddDate(0, 0, 2))
	}
	if lower == "next week" {
		return formatDate(today.AddDate(0, 0, 7))
	}

	// "next friday" skips one full week past the upcoming occurrence, even
	// when that weekday is still ahead in the current week.
	if m := nextWeekdayRE.FindStringSubmatch(lower); m != nil {
		target := weekdayNames[m[1]]
		days := int(target-today.Weekday()+7) % 7
		if days == 0 {
			days = 7
		} else {
			days += 7
		}
		return formatDate(today.AddDate(0, 0, days))
	}

	// "this friday" rolls forward a week when the weekday is today.
	if m := thisWeekdayRE.FindStringSubmatch(lower); m != nil {
		target := weekdayNames[m[1]]
		days := int(target-today.Weekday()+7) % 7
		if days <= 0 {
			days = 7
		}
		return formatDate(today.AddDate(0, 0, days))
	}

	if d, ok := parseMonthDay(lower, today); ok {
		return formatDate(d)
	}

	for _, layout := range genericLayouts {
		if d, err := time.ParseInLocation(layout, strings.TrimSpace(text), now.Location()); err == nil {
			return formatDate(d)
		}
	}

	if m := isoDateRE.FindStringSubmatch(lower); m != nil {
		if d, ok := calendarDate(m[1], m[2], m[3], now.Location()); ok {
			return formatDate(d)
		}
	}

	// US month-first convention.
	if m := usSlashDateRE.FindStringSubmatch(lower); m != nil {
		if d, ok := calendarDate(m[3], m[1], m[2], now.Location()); ok {
			return formatDate(d)
		}
	}

	return ""
}

// parseMonthDay handles "march 15", "march 15th", and "15th of march",
// resolving to the current year unless the date has already passed.
func parseMonthDay(lower string, today time.Time) (time.Time, bool) {
	var month time.Month
	var day int

	if m := monthDayRE.FindStringSubmatch(lower); m != nil {
		month = monthNames[m[1]]
		day, _ = strconv.Atoi(m[2])
	} else if m := dayMonthRE.FindStringSubmatch(lower); m != nil {
		day, _ = strconv.Atoi(m[1])
		month = monthNames[m[2]]
	} else {
		return time.Time{}, false
	}

	d := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false // e.g. February 30
	}
	if d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func calendarDate(yearStr, monthStr, dayStr string, loc *time.Location) (time.Time, bool) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if int(d.Month()) != month || d.Day() != day || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

func formatDate(d time.Time) string {
	return d.Format("2006-01-02")
}

var (
	clockAmPmRE   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)
	hourAmPmRE    = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	clock24RE     = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	bareHourRE    = regexp.MustCompile(`^(\d{1,2})$`)
	timeOfDayMaps = []struct {
		phrase string
		value  string
	}{
		{"morning", "09:00"},
		{"afternoon", "14:00"},
		{"evening", "17:00"},
		{"noon", "12:00"},
		{"midday", "12:00"},
	}
)

func parseTimeAt(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return ""
	}

	for _, tod := range timeOfDayMaps {
		if strings.Contains(lower, tod.phrase) {
			return tod.value
		}
	}

	if m := clockAmPmRE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return formatMeridiem(hour, minute, m[3])
	}

	if m := hourAmPmRE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return formatMeridiem(hour, 0, m[2])
	}

	if m := clock24RE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}

	// A lone 1-2 digit number is only trusted as an hour inside business
	// hours, so unrelated numbers don't get misread as times.
	if m := bareHourRE.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour >= 8 && hour <= 18 {
			return fmt.Sprintf("%02d:00", hour)
		}
	}

	return ""
}

func formatMeridiem(hour, minute int, meridiem string) string {
	if hour < 1 || hour > 12 || minute > 59 {
		return ""
	}
	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
