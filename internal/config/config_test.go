package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("10:10")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 10, Minute: 10}, c)
	assert.Equal(t, "10:10", c.String())

	c, err = ParseClock(" 18:40 ")
	require.NoError(t, err)
	assert.Equal(t, Clock{Hour: 18, Minute: 40}, c)

	for _, bad := range []string{"", "10", "10:60", "24:00", "-1:00", "aa:bb", "10:10:10"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "input=%q", bad)
	}
}

func TestClockOn(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	c := Clock{Hour: 9, Minute: 30}
	anchor := time.Date(2026, 9, 7, 23, 59, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 30, 0, 0, loc), c.On(anchor, loc))
}

func TestFromEnvDefaults(t *testing.T) {
	// Scrub anything the environment might carry over.
	for _, name := range []string{
		"CAMERA_OFF_THRESHOLD", "ALERT_COOLDOWN", "CHECK_INTERVAL",
		"LEAVE_ALERT_THRESHOLD", "CLASS_START_TIME", "CLASS_END_TIME",
		"LUNCH_START_TIME", "LUNCH_END_TIME", "DAILY_RESET_TIME",
		"IGNORE_KEYWORDS", "ROLE_KEYWORDS", "CLASS_TIMEZONE",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	v, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Minute, v.CameraOffThreshold)
	assert.Equal(t, 60*time.Minute, v.AlertCooldown)
	assert.Equal(t, 60*time.Second, v.CheckInterval)
	assert.Equal(t, 30*time.Minute, v.LeaveAlertThreshold)
	assert.Equal(t, Clock{Hour: 10, Minute: 10}, v.ClassStart)
	assert.Equal(t, Clock{Hour: 18, Minute: 40}, v.ClassEnd)
	assert.Equal(t, Clock{Hour: 11, Minute: 50}, v.LunchStart)
	assert.Equal(t, Clock{Hour: 12, Minute: 50}, v.LunchEnd)
	assert.False(t, v.DailyResetEnabled)
	assert.Equal(t, "Asia/Seoul", v.Timezone.String())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CAMERA_OFF_THRESHOLD", "15")
	t.Setenv("CHECK_INTERVAL", "30")
	t.Setenv("CLASS_START_TIME", "09:00")
	t.Setenv("DAILY_RESET_TIME", "08:30")
	t.Setenv("IGNORE_KEYWORDS", "테스트, bot ,")

	v, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, v.CameraOffThreshold)
	assert.Equal(t, 30*time.Second, v.CheckInterval)
	assert.Equal(t, Clock{Hour: 9, Minute: 0}, v.ClassStart)
	assert.True(t, v.DailyResetEnabled)
	assert.Equal(t, Clock{Hour: 8, Minute: 30}, v.DailyResetTime)
	assert.Equal(t, []string{"테스트", "bot"}, v.IgnoreKeywords)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	t.Setenv("CAMERA_OFF_THRESHOLD", "twenty")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvRejectsBadTimezone(t *testing.T) {
	t.Setenv("CLASS_TIMEZONE", "Mars/Olympus")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestSettingsUpdatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	base := Values{
		CameraOffThreshold:  20 * time.Minute,
		AlertCooldown:       60 * time.Minute,
		CheckInterval:       60 * time.Second,
		LeaveAlertThreshold: 30 * time.Minute,
		ClassStart:          Clock{Hour: 10, Minute: 10},
		ClassEnd:            Clock{Hour: 18, Minute: 40},
		LunchStart:          Clock{Hour: 11, Minute: 50},
		LunchEnd:            Clock{Hour: 12, Minute: 50},
	}

	settings := NewSettings(base, path)
	require.NoError(t, settings.Update(func(v *Values) {
		v.CameraOffThreshold = 10 * time.Minute
		v.ClassStart = Clock{Hour: 9, Minute: 0}
	}))

	// A fresh process layers the saved overrides on env-derived values.
	reloaded := base
	require.NoError(t, LoadPersisted(&reloaded, path))
	assert.Equal(t, 10*time.Minute, reloaded.CameraOffThreshold)
	assert.Equal(t, Clock{Hour: 9, Minute: 0}, reloaded.ClassStart)
	assert.Equal(t, 60*time.Minute, reloaded.AlertCooldown)
}

func TestLoadPersistedMissingFileIsFine(t *testing.T) {
	v := Values{CameraOffThreshold: 20 * time.Minute}
	require.NoError(t, LoadPersisted(&v, filepath.Join(t.TempDir(), "nope.json")))
	assert.Equal(t, 20*time.Minute, v.CameraOffThreshold)
}

func TestLoadPersistedCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var v Values
	assert.Error(t, LoadPersisted(&v, path))
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	settings := NewSettings(Values{CameraOffThreshold: 20 * time.Minute}, "")

	before := settings.Current()
	require.NoError(t, settings.Update(func(v *Values) {
		v.CameraOffThreshold = 5 * time.Minute
	}))

	assert.Equal(t, 20*time.Minute, before.CameraOffThreshold, "snapshots are immutable")
	assert.Equal(t, 5*time.Minute, settings.Current().CameraOffThreshold)
}
