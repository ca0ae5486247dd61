package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baehyeonu/classwatch/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestCreateAndLookups(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	p, err := st.Create(ctx, "구마적", "1001", false)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "구마적", p.DisplayName)
	assert.False(t, p.CameraOn)
	assert.False(t, p.IsAdmin)

	byID, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byID.ID)

	byName, err := st.ByName(ctx, "구마적")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	byHandle, err := st.ByHandle(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byHandle.ID)

	_, err = st.ByName(ctx, "없는사람")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllOrderedByID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"다","가","나"} {
		_, err := st.Create(ctx, name, "", false)
		require.NoError(t, err)
	}

	all, err := st.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID)
	assert.Less(t, all[1].ID, all[2].ID)
}

func TestAdminHandles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, "구마적", "1001", false)
	require.NoError(t, err)
	_, err = st.Create(ctx, "현우_조교", "2001", true)
	require.NoError(t, err)
	_, err = st.Create(ctx, "무전자_조교", "", true)
	require.NoError(t, err)

	handles, err := st.AdminHandles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2001"}, handles, "handleless admins are not delivery targets")
}

func TestCameraTransitionsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "1001", false)
	require.NoError(t, err)

	on := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	require.NoError(t, st.ApplyCameraOn(ctx, p.ID, on))

	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CameraOn)
	assert.Equal(t, on.UnixMilli(), got.LastStatusChange.UnixMilli())
	assert.True(t, got.LastLeaveTime.IsZero())

	off := on.Add(30 * time.Minute)
	require.NoError(t, st.ApplyCameraOff(ctx, p.ID, off))
	got, err = st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.CameraOn)
	assert.Equal(t, off.UnixMilli(), got.LastStatusChange.UnixMilli())
}

func TestLeaveAndCameraOnClearEachOther(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	leaveAt := time.Now().Truncate(time.Millisecond)
	require.NoError(t, st.RecordLeave(ctx, p.ID, leaveAt))
	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Left())
	assert.False(t, got.CameraOn)

	require.NoError(t, st.ApplyCameraOn(ctx, p.ID, leaveAt.Add(time.Minute)))
	got, err = st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Left())
	assert.True(t, got.CameraOn)
}

func TestCameraOnResetsAlertBookkeeping(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, st.RecordAlertsSent(ctx, []int64{p.ID}, now))
	require.NoError(t, st.RecordResponse(ctx, p.ID, "returning", now))

	require.NoError(t, st.ApplyCameraOn(ctx, p.ID, now.Add(time.Minute)))

	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AlertCount)
	assert.True(t, got.LastAlertSent.IsZero())
	assert.Empty(t, got.ResponseStatus)
}

func TestAlertCountAccumulates(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, st.RecordAlertsSent(ctx, []int64{p.ID}, now))
	require.NoError(t, st.RecordAlertsSent(ctx, []int64{p.ID}, now.Add(time.Hour)))

	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AlertCount)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), got.LastAlertSent.UnixMilli())
}

func TestStatusOverrideRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	setAt := time.Now().Truncate(time.Millisecond)
	autoReset := setAt.Add(24 * time.Hour)
	require.NoError(t, st.SetStatusOverride(ctx, p.ID, types.StatusVacation, setAt, time.Time{}, autoReset))

	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusVacation, got.Status)
	assert.Equal(t, setAt.UnixMilli(), got.StatusSetAt.UnixMilli())
	assert.True(t, got.AlarmBlockedUntil.IsZero(), "zero time must round-trip as zero")
	assert.Equal(t, autoReset.UnixMilli(), got.StatusAutoReset.UnixMilli())

	require.NoError(t, st.ClearStatusOverride(ctx, p.ID))
	got, err = st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNone, got.Status)
	assert.True(t, got.StatusSetAt.IsZero())
}

func TestExcusedRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	require.NoError(t, st.SetExcused(ctx, p.ID, types.ExcusedOut, time.Now()))
	got, err := st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Excused)
	assert.Equal(t, types.ExcusedOut, got.ExcusedType)

	require.NoError(t, st.ClearAbsence(ctx, p.ID))
	got, err = st.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Excused)
	assert.Equal(t, types.ExcusedNone, got.ExcusedType)
}

func TestResetCameraOffTimersSkipsCameraOn(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	off, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)
	on, err := st.Create(ctx, "박영희", "", false)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	require.NoError(t, st.ApplyCameraOff(ctx, off.ID, base))
	require.NoError(t, st.ApplyCameraOn(ctx, on.ID, base))

	boundary := base.Add(30 * time.Minute)
	require.NoError(t, st.ResetCameraOffTimers(ctx, []int64{off.ID, on.ID}, boundary))

	gotOff, err := st.ByID(ctx, off.ID)
	require.NoError(t, err)
	assert.Equal(t, boundary.UnixMilli(), gotOff.LastStatusChange.UnixMilli())

	gotOn, err := st.ByID(ctx, on.ID)
	require.NoError(t, err)
	assert.Equal(t, base.UnixMilli(), gotOn.LastStatusChange.UnixMilli(), "camera-on rows are untouched")
}

func TestResetAlertBookkeepingRespectsBoundary(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	stale, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)
	fresh, err := st.Create(ctx, "박영희", "", false)
	require.NoError(t, err)

	boundary := time.Now().Truncate(time.Millisecond)
	require.NoError(t, st.ApplyCameraOff(ctx, stale.ID, boundary.Add(-time.Hour)))
	require.NoError(t, st.ApplyCameraOff(ctx, fresh.ID, boundary.Add(time.Hour)))
	require.NoError(t, st.RecordAlertsSent(ctx, []int64{stale.ID, fresh.ID}, boundary))

	require.NoError(t, st.ResetAlertBookkeeping(ctx, boundary))

	gotStale, err := st.ByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Zero(t, gotStale.AlertCount)
	// Presence facts survive.
	assert.Equal(t, boundary.Add(-time.Hour).UnixMilli(), gotStale.LastStatusChange.UnixMilli())

	gotFresh, err := st.ByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotFresh.AlertCount, "post-boundary rows keep their bookkeeping")
}

func TestDuplicateNameRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Create(ctx, "구마적", "", false)
	require.NoError(t, err)
	_, err = st.Create(ctx, "구마적", "", false)
	assert.Error(t, err)
}
