package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// persistedSettings is the operator-tunable subset saved across restarts.
// Durations are stored as whole minutes (seconds for the check interval) to
// keep the file hand-editable.
type persistedSettings struct {
	CameraOffThreshold  *int    `json:"camera_off_threshold,omitempty"`
	AlertCooldown       *int    `json:"alert_cooldown,omitempty"`
	CheckInterval       *int    `json:"check_interval,omitempty"`
	LeaveAlertThreshold *int    `json:"leave_alert_threshold,omitempty"`
	ClassStartTime      *string `json:"class_start_time,omitempty"`
	ClassEndTime        *string `json:"class_end_time,omitempty"`
	LunchStartTime      *string `json:"lunch_start_time,omitempty"`
	LunchEndTime        *string `json:"lunch_end_time,omitempty"`
	DailyResetTime      *string `json:"daily_reset_time,omitempty"`
}

// LoadPersisted layers any previously saved operator overrides on top of the
// env-derived values. A missing file is not an error; a corrupt one is, so a
// bad deploy surfaces at startup instead of silently reverting thresholds.
func LoadPersisted(v *Values, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("could not read settings file %s: %w", path, err)
	}

	var saved persistedSettings
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("could not parse settings file %s: %w", path, err)
	}

	if saved.CameraOffThreshold != nil {
		v.CameraOffThreshold = minutes(*saved.CameraOffThreshold)
	}
	if saved.AlertCooldown != nil {
		v.AlertCooldown = minutes(*saved.AlertCooldown)
	}
	if saved.CheckInterval != nil {
		v.CheckInterval = seconds(*saved.CheckInterval)
	}
	if saved.LeaveAlertThreshold != nil {
		v.LeaveAlertThreshold = minutes(*saved.LeaveAlertThreshold)
	}

	for _, field := range []struct {
		raw  *string
		dest *Clock
		name string
	}{
		{saved.ClassStartTime, &v.ClassStart, "class_start_time"},
		{saved.ClassEndTime, &v.ClassEnd, "class_end_time"},
		{saved.LunchStartTime, &v.LunchStart, "lunch_start_time"},
		{saved.LunchEndTime, &v.LunchEnd, "lunch_end_time"},
	} {
		if field.raw == nil {
			continue
		}
		c, err := ParseClock(*field.raw)
		if err != nil {
			return fmt.Errorf("settings file %s: %s: %w", path, field.name, err)
		}
		*field.dest = c
	}

	if saved.DailyResetTime != nil {
		if *saved.DailyResetTime == "" {
			v.DailyResetEnabled = false
		} else {
			c, err := ParseClock(*saved.DailyResetTime)
			if err != nil {
				return fmt.Errorf("settings file %s: daily_reset_time: %w", path, err)
			}
			v.DailyResetEnabled = true
			v.DailyResetTime = c
		}
	}

	return nil
}

func persist(v Values, path string) error {
	if path == "" {
		return nil
	}

	camOff := int(v.CameraOffThreshold.Minutes())
	cooldown := int(v.AlertCooldown.Minutes())
	interval := int(v.CheckInterval.Seconds())
	leave := int(v.LeaveAlertThreshold.Minutes())
	classStart := v.ClassStart.String()
	classEnd := v.ClassEnd.String()
	lunchStart := v.LunchStart.String()
	lunchEnd := v.LunchEnd.String()

	saved := persistedSettings{
		CameraOffThreshold:  &camOff,
		AlertCooldown:       &cooldown,
		CheckInterval:       &interval,
		LeaveAlertThreshold: &leave,
		ClassStartTime:      &classStart,
		ClassEndTime:        &classEnd,
		LunchStartTime:      &lunchStart,
		LunchEndTime:        &lunchEnd,
	}
	if v.DailyResetEnabled {
		reset := v.DailyResetTime.String()
		saved.DailyResetTime = &reset
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("could not create settings directory: %w", err)
	}

	// Write-then-rename so a crash mid-save never leaves a truncated file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("could not write settings file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not replace settings file: %w", err)
	}

	return nil
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
