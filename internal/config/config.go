package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock is a wall-clock time of day in the classroom's timezone.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM". Malformed values are a hard error: schedule
// windows silently defaulting was a latent bug source in the previous system.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid time %q: bad minute", s)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MinuteOfDay supports ordering comparisons between two clocks.
func (c Clock) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock to the calendar day of t in the given location.
func (c Clock) On(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// Values holds every tunable the core consumes. Durations are resolved at
// load time so components never reparse minute counts.
type Values struct {
	CameraOffThreshold      time.Duration
	AlertCooldown           time.Duration
	CheckInterval           time.Duration
	LeaveAlertThreshold     time.Duration
	LeaveAdminAlertCooldown time.Duration
	AbsenceAlertCooldown    time.Duration
	ReturnReminderTime      time.Duration
	AbsentReminderTime      time.Duration
	WarmupTime              time.Duration

	ClassStart Clock
	ClassEnd   Clock
	LunchStart Clock
	LunchEnd   Clock

	DailyResetEnabled bool
	DailyResetTime    Clock

	RecentPollInterval  time.Duration
	FullResyncInterval  time.Duration
	DashboardInterval   time.Duration
	LookbackWindow      time.Duration
	StaleMessageGrace   time.Duration
	DedupEpsilon        time.Duration
	IgnoreKeywords      []string
	RoleKeywords        []string

	Timezone *time.Location
}

// FromEnv builds Values from environment variables, applying defaults for
// everything optional and failing fast on anything malformed.
func FromEnv() (Values, error) {
	v := Values{
		CameraOffThreshold:      20 * time.Minute,
		AlertCooldown:           60 * time.Minute,
		CheckInterval:           60 * time.Second,
		LeaveAlertThreshold:     30 * time.Minute,
		LeaveAdminAlertCooldown: 60 * time.Minute,
		AbsenceAlertCooldown:    30 * time.Minute,
		ReturnReminderTime:      5 * time.Minute,
		AbsentReminderTime:      10 * time.Minute,
		WarmupTime:              time.Minute,
		RecentPollInterval:      30 * time.Second,
		FullResyncInterval:      30 * time.Minute,
		DashboardInterval:       3 * time.Second,
		LookbackWindow:          24 * time.Hour,
		StaleMessageGrace:       30 * time.Second,
		DedupEpsilon:            50 * time.Millisecond,
	}

	var err error
	if v.CameraOffThreshold, err = envMinutes("CAMERA_OFF_THRESHOLD", v.CameraOffThreshold); err != nil {
		return Values{}, err
	}
	if v.AlertCooldown, err = envMinutes("ALERT_COOLDOWN", v.AlertCooldown); err != nil {
		return Values{}, err
	}
	if v.CheckInterval, err = envSeconds("CHECK_INTERVAL", v.CheckInterval); err != nil {
		return Values{}, err
	}
	if v.LeaveAlertThreshold, err = envMinutes("LEAVE_ALERT_THRESHOLD", v.LeaveAlertThreshold); err != nil {
		return Values{}, err
	}
	if v.LeaveAdminAlertCooldown, err = envMinutes("LEAVE_ADMIN_ALERT_COOLDOWN", v.LeaveAdminAlertCooldown); err != nil {
		return Values{}, err
	}
	if v.AbsenceAlertCooldown, err = envMinutes("ABSENT_ALERT_COOLDOWN", v.AbsenceAlertCooldown); err != nil {
		return Values{}, err
	}
	if v.ReturnReminderTime, err = envMinutes("RETURN_REMINDER_TIME", v.ReturnReminderTime); err != nil {
		return Values{}, err
	}
	if v.AbsentReminderTime, err = envMinutes("ABSENT_REMINDER_TIME", v.AbsentReminderTime); err != nil {
		return Values{}, err
	}

	if v.ClassStart, err = envClock("CLASS_START_TIME", Clock{10, 10}); err != nil {
		return Values{}, err
	}
	if v.ClassEnd, err = envClock("CLASS_END_TIME", Clock{18, 40}); err != nil {
		return Values{}, err
	}
	if v.LunchStart, err = envClock("LUNCH_START_TIME", Clock{11, 50}); err != nil {
		return Values{}, err
	}
	if v.LunchEnd, err = envClock("LUNCH_END_TIME", Clock{12, 50}); err != nil {
		return Values{}, err
	}

	if raw := os.Getenv("DAILY_RESET_TIME"); raw != "" {
		reset, parseErr := ParseClock(raw)
		if parseErr != nil {
			return Values{}, fmt.Errorf("DAILY_RESET_TIME: %w", parseErr)
		}
		v.DailyResetEnabled = true
		v.DailyResetTime = reset
	}

	v.IgnoreKeywords = envList("IGNORE_KEYWORDS")
	if keywords := envList("ROLE_KEYWORDS"); len(keywords) > 0 {
		v.RoleKeywords = keywords
	}

	tzName := os.Getenv("CLASS_TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Values{}, fmt.Errorf("CLASS_TIMEZONE: unknown timezone %q", tzName)
	}
	v.Timezone = loc

	return v, nil
}

func envMinutes(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative number of minutes, got %q", name, raw)
	}
	return time.Duration(n) * time.Minute, nil
}

func envSeconds(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive number of seconds, got %q", name, raw)
	}
	return time.Duration(n) * time.Second, nil
}

func envClock(name string, fallback Clock) (Clock, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	c, err := ParseClock(raw)
	if err != nil {
		return Clock{}, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func envList(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Settings is the reloadable settings object handed to every component.
// Components read a snapshot each tick, so threshold and cooldown changes
// take effect without a restart.
type Settings struct {
	mu   sync.RWMutex
	v    Values
	path string // persistence file; empty disables persistence
}

func NewSettings(v Values, persistPath string) *Settings {
	return &Settings{v: v, path: persistPath}
}

// Current returns a copy of the live values. Slice fields are shared and must
// be treated as read-only by callers.
func (s *Settings) Current() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.v
}

// Update applies fn to the live values and persists the operator-tunable
// subset.
func (s *Settings) Update(fn func(*Values)) error {
	s.mu.Lock()
	fn(&s.v)
	snapshot := s.v
	s.mu.Unlock()

	return persist(snapshot, s.path)
}
