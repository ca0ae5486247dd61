package schedule

import (
	"time"

	"github.com/rickar/cal/v2"
)

// Korean statutory holidays. The calendar library ships no Korea package, so
// the days are defined here the same way its country packages define theirs:
// fixed dates through the library's calc functions, lunar-cycle days through
// a per-year date table. Years outside the table are covered by the manual
// override set.

var fixedKoreanHolidays = []*cal.Holiday{
	{Name: "신정", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "삼일절", Type: cal.ObservancePublic, Month: time.March, Day: 1, Func: cal.CalcDayOfMonth},
	{Name: "어린이날", Type: cal.ObservancePublic, Month: time.May, Day: 5, Func: cal.CalcDayOfMonth},
	{Name: "현충일", Type: cal.ObservancePublic, Month: time.June, Day: 6, Func: cal.CalcDayOfMonth},
	{Name: "광복절", Type: cal.ObservancePublic, Month: time.August, Day: 15, Func: cal.CalcDayOfMonth},
	{Name: "개천절", Type: cal.ObservancePublic, Month: time.October, Day: 3, Func: cal.CalcDayOfMonth},
	{Name: "한글날", Type: cal.ObservancePublic, Month: time.October, Day: 9, Func: cal.CalcDayOfMonth},
	{Name: "성탄절", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
}

type monthDay struct {
	month time.Month
	day   int
}

// Gregorian dates of the lunar-calendar holidays' principal day.
var (
	seollalDates = map[int]monthDay{
		2024: {time.February, 10},
		2025: {time.January, 29},
		2026: {time.February, 17},
		2027: {time.February, 6},
		2028: {time.January, 26},
		2029: {time.February, 13},
		2030: {time.February, 3},
	}
	buddhasBirthdayDates = map[int]monthDay{
		2024: {time.May, 15},
		2025: {time.May, 5},
		2026: {time.May, 24},
		2027: {time.May, 13},
		2028: {time.May, 2},
		2029: {time.May, 20},
		2030: {time.May, 9},
	}
	chuseokDates = map[int]monthDay{
		2024: {time.September, 17},
		2025: {time.October, 6},
		2026: {time.September, 25},
		2027: {time.September, 15},
		2028: {time.October, 3},
		2029: {time.September, 22},
		2030: {time.September, 12},
	}
)

// lunarCalc builds a holiday calc function from a date table. A year missing
// from the table yields the zero time, which matches no calendar day.
func lunarCalc(dates map[int]monthDay, offsetDays int) func(*cal.Holiday, int) time.Time {
	return func(_ *cal.Holiday, year int) time.Time {
		d, ok := dates[year]
		if !ok {
			return time.Time{}
		}
		return time.Date(year, d.month, d.day, 0, 0, 0, 0, cal.DefaultLoc).AddDate(0, 0, offsetDays)
	}
}

func koreanHolidays() []*cal.Holiday {
	all := make([]*cal.Holiday, 0, len(fixedKoreanHolidays)+7)
	all = append(all, fixedKoreanHolidays...)

	// Seollal and Chuseok are three-day holidays: the eve, the day, and the
	// day after.
	for offset := -1; offset <= 1; offset++ {
		all = append(all,
			&cal.Holiday{Name: "설날", Type: cal.ObservancePublic, Func: lunarCalc(seollalDates, offset)},
			&cal.Holiday{Name: "추석", Type: cal.ObservancePublic, Func: lunarCalc(chuseokDates, offset)},
		)
	}
	all = append(all, &cal.Holiday{
		Name: "부처님오신날",
		Type: cal.ObservancePublic,
		Func: lunarCalc(buddhasBirthdayDates, 0),
	})
	return all
}
