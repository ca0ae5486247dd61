package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baehyeonu/classwatch/internal/config"
	"github.com/Baehyeonu/classwatch/internal/types"
)

func enableDailyReset(t *testing.T, f *fixture, c config.Clock) {
	t.Helper()
	require.NoError(t, f.settings.Update(func(v *config.Values) {
		v.DailyResetEnabled = true
		v.DailyResetTime = c
	}))
}

func TestDailyResetClearsBookkeepingKeepsPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})

	loc := seoul(t)
	yesterday := time.Date(2026, 9, 6, 15, 0, 0, 0, loc)
	p := f.offCamera(t, "구마적", "1001", yesterday)
	require.NoError(t, f.dir.RecordAlertsSent(ctx, []int64{p.ID}, yesterday))
	require.NoError(t, f.dir.SetStatusOverride(ctx, p.ID, types.StatusLate, yesterday, time.Time{}, time.Time{}))

	now := time.Date(2026, 9, 7, 9, 1, 0, 0, loc)
	f.eng.tick(ctx, now)

	got, err := f.dir.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AlertCount)
	assert.True(t, got.LastAlertSent.IsZero())
	assert.Equal(t, types.StatusNone, got.Status)

	// Presence facts survive the reset untouched.
	assert.False(t, got.CameraOn)
	assert.WithinDuration(t, yesterday, got.LastStatusChange, time.Second)

	assert.Zero(t, f.joined.Len(), "joined-today restarts at the boundary")
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, loc), f.eng.ResetAt())
}

func TestDailyResetRunsOncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})
	loc := seoul(t)

	f.eng.tick(ctx, time.Date(2026, 9, 7, 9, 1, 0, 0, loc))
	first := f.eng.ResetAt()

	// Later the same day nothing new happens.
	p := f.offCamera(t, "구마적", "1001", time.Date(2026, 9, 7, 9, 30, 0, 0, loc))
	require.NoError(t, f.dir.RecordAlertsSent(ctx, []int64{p.ID}, time.Date(2026, 9, 7, 9, 40, 0, 0, loc)))

	f.eng.tick(ctx, time.Date(2026, 9, 7, 9, 45, 0, 0, loc))
	assert.Equal(t, first, f.eng.ResetAt())

	got, err := f.dir.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AlertCount, "a second tick must not clear today's bookkeeping")
}

func TestDailyResetNotBeforeScheduledTime(t *testing.T) {
	f := newFixture(t)
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})

	f.eng.tick(context.Background(), time.Date(2026, 9, 7, 8, 59, 0, 0, seoul(t)))
	assert.True(t, f.eng.ResetAt().IsZero())
}

func TestDailyResetPreservesPostBoundaryActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})
	loc := seoul(t)

	// Someone already active after the boundary keeps their override.
	active := f.offCamera(t, "박영희", "1002", time.Date(2026, 9, 7, 9, 5, 0, 0, loc))
	require.NoError(t, f.dir.SetStatusOverride(ctx, active.ID, types.StatusLate,
		time.Date(2026, 9, 7, 9, 6, 0, 0, loc), time.Time{}, time.Time{}))

	stale := f.offCamera(t, "구마적", "1001", time.Date(2026, 9, 6, 15, 0, 0, 0, loc))
	require.NoError(t, f.dir.SetStatusOverride(ctx, stale.ID, types.StatusLate,
		time.Date(2026, 9, 6, 15, 0, 0, 0, loc), time.Time{}, time.Time{}))

	f.eng.tick(ctx, time.Date(2026, 9, 7, 9, 10, 0, 0, loc))

	gotActive, err := f.dir.ByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusLate, gotActive.Status)

	gotStale, err := f.dir.ByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNone, gotStale.Status)
}

func TestStartupResetPerformsMissedReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})
	loc := seoul(t)

	p := f.offCamera(t, "구마적", "1001", time.Date(2026, 9, 6, 15, 0, 0, 0, loc))
	require.NoError(t, f.dir.RecordAlertsSent(ctx, []int64{p.ID}, time.Date(2026, 9, 6, 15, 30, 0, 0, loc)))

	f.eng.StartupReset(ctx, time.Date(2026, 9, 7, 9, 30, 0, 0, loc))

	got, err := f.dir.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AlertCount)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, loc), f.eng.ResetAt())
}

func TestStartupResetSkipsWhenTodayAlreadyActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})
	loc := seoul(t)

	// Activity after today's boundary means the previous run already reset;
	// clearing again would wipe today's bookkeeping.
	p := f.offCamera(t, "구마적", "1001", time.Date(2026, 9, 7, 10, 0, 0, 0, loc))
	require.NoError(t, f.dir.RecordAlertsSent(ctx, []int64{p.ID}, time.Date(2026, 9, 7, 10, 30, 0, 0, loc)))

	f.eng.StartupReset(ctx, time.Date(2026, 9, 7, 11, 0, 0, 0, loc))

	got, err := f.dir.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AlertCount, "already-reset state must be preserved")
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, loc), f.eng.ResetAt())
}

func TestStartupResetBeforeScheduledTimeDoesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enableDailyReset(t, f, config.Clock{Hour: 9, Minute: 0})

	f.eng.StartupReset(ctx, time.Date(2026, 9, 7, 8, 0, 0, 0, seoul(t)))
	assert.True(t, f.eng.ResetAt().IsZero())
}

func TestStartupResetDisabledIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.eng.StartupReset(context.Background(), classTime(t))
	assert.True(t, f.eng.ResetAt().IsZero())
}
