package calendar

import "time"

type holidayInfo struct {
	Name  string
	Month time.Month
	Day   int
}

// Fixed-date US business holidays. Meetings are not proposed on these days.
var fixedHolidays = []holidayInfo{
	{"New Year's Day", time.January, 1},
	{"Independence Day", time.July, 4},
	{"Christmas Eve", time.December, 24},
	{"Christmas", time.December, 25},
	{"New Year's Eve", time.December, 31},
}

// isHoliday reports whether the given time falls on a US business holiday.
// Covers both fixed and floating holidays.
func isHoliday(t time.Time) (bool, string) {
	for _, h := range fixedHolidays {
		if t.Month() == h.Month && t.Day() == h.Day {
			return true, h.Name
		}
	}

	month := t.Month()
	day := t.Day()

	// MLK Day: 3rd Monday in January
	if month == time.January && t.Weekday() == time.Monday && nthWeekday(day) == 3 {
		return true, "MLK Day"
	}
	// Presidents' Day: 3rd Monday in February
	if month == time.February && t.Weekday() == time.Monday && nthWeekday(day) == 3 {
		return true, "Presidents' Day"
	}
	// Memorial Day: last Monday in May
	if month == time.May && t.Weekday() == time.Monday && day > 24 {
		return true, "Memorial Day"
	}
	// Labor Day: 1st Monday in September
	if month == time.September && t.Weekday() == time.Monday && nthWeekday(day) == 1 {
		return true, "Labor Day"
	}
	// Thanksgiving: 4th Thursday in November
	if month == time.November && t.Weekday() == time.Thursday && nthWeekday(day) == 4 {
		return true, "Thanksgiving"
	}
	// Day after Thanksgiving
	if month == time.November && t.Weekday() == time.Friday && nthWeekday(day-1) == 4 {
		return true, "Day after Thanksgiving"
	}

	return false, ""
}

func nthWeekday(dayOfMonth int) int {
	return (dayOfMonth-1)/7 + 1
}
