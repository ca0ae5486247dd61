package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baehyeonu/classwatch/internal/store"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestResolveExactName(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	p, ok := dir.Resolve(ctx, "구마적", nil)
	require.True(t, ok)
	assert.Equal(t, created.ID, p.ID)
}

func TestResolveStripsRoleSegments(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.Create(ctx, "유승수", "", false)
	require.NoError(t, err)

	for _, raw := range []string{"주강사_유승수", "유승수_멘토", "한국IT/유승수"} {
		p, ok := dir.Resolve(ctx, raw, nil)
		require.True(t, ok, "raw %q should resolve", raw)
		assert.Equal(t, created.ID, p.ID, "raw %q", raw)
	}
}

func TestResolveFuzzyWithinOneEdit(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	p, ok := dir.Resolve(ctx, "구마젹", nil)
	require.True(t, ok)
	assert.Equal(t, created.ID, p.ID)

	_, ok = dir.Resolve(ctx, "전혀다른이름", nil)
	assert.False(t, ok, "two or more edits away must not match")
}

func TestResolveFuzzyTieBreaksOnLowestID(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	first, err := dir.Create(ctx, "김민수", "", false)
	require.NoError(t, err)
	_, err = dir.Create(ctx, "김인수", "", false)
	require.NoError(t, err)

	// "김먼수" is one edit from both registered names.
	p, ok := dir.Resolve(ctx, "김먼수", nil)
	require.True(t, ok)
	assert.Equal(t, first.ID, p.ID)
}

func TestResolveCachesVariants(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.Create(ctx, "구마적", "", false)
	require.NoError(t, err)

	_, ok := dir.Resolve(ctx, "조교_구마적", nil)
	require.True(t, ok)

	// The resolved variant is now a direct cache hit.
	id, hit := dir.cache.get("구마적")
	require.True(t, hit)
	assert.Equal(t, created.ID, id)

	dir.InvalidateCache()
	_, hit = dir.cache.get("구마적")
	assert.False(t, hit)
}

func TestResolveUnknownSubjectFails(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	_, ok := dir.Resolve(ctx, "미등록자", nil)
	assert.False(t, ok)

	// A repeat failure for the same raw string stays deduplicated.
	_, ok = dir.Resolve(ctx, "미등록자", nil)
	assert.False(t, ok)
	assert.Len(t, dir.failedSubjects, 1)
}

func TestAdminCacheFailsOpenWhenEmpty(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, dir.Admins.Refresh(ctx))
	assert.True(t, dir.Admins.IsAdmin("anyone"), "empty admin set treats everyone as admin")

	_, err := dir.Create(ctx, "현우_조교", "2001", true)
	require.NoError(t, err)
	require.NoError(t, dir.Admins.Refresh(ctx))

	assert.True(t, dir.Admins.IsAdmin("2001"))
	assert.False(t, dir.Admins.IsAdmin("1001"))
	assert.ElementsMatch(t, []string{"2001"}, dir.Admins.Handles())
}

func TestAdminCacheEnsureLoadedOnlyOnce(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, dir.Admins.EnsureLoaded(ctx))

	// New admins are not visible until an explicit refresh.
	_, err := dir.Create(ctx, "현우_조교", "2001", true)
	require.NoError(t, err)
	require.NoError(t, dir.Admins.EnsureLoaded(ctx))
	assert.Empty(t, dir.Admins.Handles())

	require.NoError(t, dir.Admins.Refresh(ctx))
	assert.ElementsMatch(t, []string{"2001"}, dir.Admins.Handles())
}
