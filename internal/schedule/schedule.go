// Package schedule decides whether the monitor should be alerting at a given
// instant, combining the configured class and lunch windows with a
// weekend/holiday calendar. All date comparisons happen in the classroom's
// one canonical timezone; mixing UTC and local dates here has bitten before.
package schedule

import (
	"time"

	"github.com/Baehyeonu/classwatch/internal/config"
)

type Gate struct {
	settings *config.Settings
	holidays *HolidayCalendar
}

func NewGate(settings *config.Settings, holidays *HolidayCalendar) *Gate {
	return &Gate{settings: settings, holidays: holidays}
}

// IsClassTime reports whether now falls inside the class window, lunch
// excluded.
func (g *Gate) IsClassTime(now time.Time) bool {
	v := g.settings.Current()
	minute := minuteOfDay(now, v.Timezone)

	if minute < v.ClassStart.MinuteOfDay() || minute > v.ClassEnd.MinuteOfDay() {
		return false
	}
	return !g.IsLunchTime(now)
}

// IsLunchTime uses a start-inclusive, end-exclusive window.
func (g *Gate) IsLunchTime(now time.Time) bool {
	v := g.settings.Current()
	minute := minuteOfDay(now, v.Timezone)

	return minute >= v.LunchStart.MinuteOfDay() && minute < v.LunchEnd.MinuteOfDay()
}

func (g *Gate) IsWeekendOrHoliday(now time.Time) bool {
	v := g.settings.Current()
	local := now.In(v.Timezone)

	if weekday := local.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		return true
	}
	return g.holidays.IsHoliday(local)
}

// IsActive reports whether duration checks should run at all: a class-time
// weekday that is not a holiday.
func (g *Gate) IsActive(now time.Time) bool {
	return !g.IsWeekendOrHoliday(now) && g.IsClassTime(now)
}

func minuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
