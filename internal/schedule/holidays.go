package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
)

// HolidayCalendar merges the automatic Korean public-holiday calendar with a
// manually maintained override set persisted to disk.
type HolidayCalendar struct {
	calendar *cal.Calendar
	path     string

	manual map[string]struct{} // ISO dates, e.g. "2026-09-01"
	mu     sync.RWMutex
}

// NewHolidayCalendar loads the manual override file if one exists. A missing
// file just means an empty override set.
func NewHolidayCalendar(path string) (*HolidayCalendar, error) {
	calendar := &cal.Calendar{}
	calendar.AddHoliday(koreanHolidays()...)

	hc := &HolidayCalendar{
		calendar: calendar,
		path:     path,
		manual:   make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return hc, nil
	} else if err != nil {
		return nil, fmt.Errorf("could not read holiday file %s: %w", path, err)
	}

	var dates []string
	if err := json.Unmarshal(data, &dates); err != nil {
		return nil, fmt.Errorf("could not parse holiday file %s: %w", path, err)
	}
	for _, d := range dates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			log.Printf("WARN: skipping malformed holiday date %q in %s", d, path)
			continue
		}
		hc.manual[d] = struct{}{}
	}

	return hc, nil
}

// IsHoliday checks the automatic calendar, then the manual set. The date's
// own location decides the calendar day.
func (hc *HolidayCalendar) IsHoliday(date time.Time) bool {
	if actual, observed, _ := hc.calendar.IsHoliday(date); actual || observed {
		return true
	}

	hc.mu.RLock()
	defer hc.mu.RUnlock()

	_, exists := hc.manual[date.Format(time.DateOnly)]
	return exists
}

// AddManual adds a manual holiday, returning false when the date was already
// present.
func (hc *HolidayCalendar) AddManual(date time.Time) (bool, error) {
	key := date.Format(time.DateOnly)

	hc.mu.Lock()
	if _, exists := hc.manual[key]; exists {
		hc.mu.Unlock()
		return false, nil
	}
	hc.manual[key] = struct{}{}
	hc.mu.Unlock()

	return true, hc.save()
}

// RemoveManual removes a manual holiday, returning false when absent.
func (hc *HolidayCalendar) RemoveManual(date time.Time) (bool, error) {
	key := date.Format(time.DateOnly)

	hc.mu.Lock()
	if _, exists := hc.manual[key]; !exists {
		hc.mu.Unlock()
		return false, nil
	}
	delete(hc.manual, key)
	hc.mu.Unlock()

	return true, hc.save()
}

// ManualHolidays lists the override set in ascending date order.
func (hc *HolidayCalendar) ManualHolidays() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	dates := make([]string, 0, len(hc.manual))
	for d := range hc.manual {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

func (hc *HolidayCalendar) save() error {
	if hc.path == "" {
		return nil
	}

	dates := hc.ManualHolidays()
	data, err := json.MarshalIndent(dates, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode holidays: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(hc.path), os.ModePerm); err != nil {
		return fmt.Errorf("could not create holiday directory: %w", err)
	}
	if err := os.WriteFile(hc.path, data, 0o644); err != nil {
		return fmt.Errorf("could not write holiday file: %w", err)
	}
	return nil
}
