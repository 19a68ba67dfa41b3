package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/actra/internal/store"
)

func TestJoinPreservesTotalsAndRepointsObservers(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	b := h.activity(t, "b")
	p := h.project(t, "p")
	require.True(t, h.svc.AddMember(h.ctx, p, a))
	h.track(t, a, time.Minute)
	h.track(t, b, 2*time.Minute)

	joined, err := h.svc.Join(h.ctx, "ab", []string{a, b}, nil, false)
	require.NoError(t, err)

	assert.False(t, joined.IsProject())
	assert.Equal(t, store.NewColor(1, 2, 3), joined.Color())
	assert.Equal(t, 180.0, h.seconds(t, joined.ID(), nil))

	_, err = h.svc.Resolve("a")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.svc.Resolve(b)
	assert.ErrorIs(t, err, store.ErrNotFound)

	members, err := h.svc.ProjectMembers(p)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, joined.ID(), members[0].ID())
	assert.Equal(t, 180.0, h.seconds(t, p, nil))

	h.svc.View(func(st *store.Store) {
		assert.Len(t, st.Intervals(), 3, "no interval is lost")
		for _, iv := range st.History(joined.ID()) {
			owner, _ := st.IntervalOwner(iv.ID)
			assert.Equal(t, joined.ID(), owner)
		}
	})
}

func TestJoinObserversForget(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	b := h.activity(t, "b")
	p := h.project(t, "p")
	h.svc.AddMember(h.ctx, p, a)

	color := store.NewColor(7, 7, 7)
	joined, err := h.svc.Join(h.ctx, "ab", []string{a, b}, &color, true)
	require.NoError(t, err)
	assert.Equal(t, color, joined.Color())

	members, err := h.svc.ProjectMembers(p)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestJoinCanReuseOriginalName(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	b := h.activity(t, "b")

	joined, err := h.svc.Join(h.ctx, "a", []string{a, b}, nil, false)
	require.NoError(t, err)
	id, err := h.svc.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, joined.ID(), id)
}

func TestJoinKeepsRunningSession(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	b := h.activity(t, "b")
	_, err := h.svc.Start(h.ctx, a)
	require.NoError(t, err)

	joined, err := h.svc.Join(h.ctx, "ab", []string{a, b}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, joined.ID(), h.svc.CurrentlyActive())
	h.svc.View(func(st *store.Store) {
		assert.Equal(t, store.Active, st.TrackingState(joined.ID()))
	})
}

func TestJoinFailures(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	h.activity(t, "taken")

	joined, err := h.svc.Join(h.ctx, "x", []string{a, "missing"}, nil, false)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, joined)
	_, err = h.svc.Resolve(a)
	assert.NoError(t, err, "nothing changes on failure")

	_, err = h.svc.Join(h.ctx, "taken", []string{a}, nil, false)
	assert.ErrorIs(t, err, store.ErrNameConflict)

	_, err = h.svc.Join(h.ctx, "x", nil, nil, false)
	assert.Error(t, err)
}

func TestConvertActivityToProject(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "coding")
	parent := h.project(t, "work")
	h.svc.AddMember(h.ctx, parent, a)
	h.track(t, a, 2*time.Minute)

	p, err := h.svc.ConvertActivityToProject(h.ctx, a)
	require.NoError(t, err)
	assert.True(t, p.IsProject())
	assert.Equal(t, a, p.ID())
	assert.Equal(t, "coding", p.Name())

	inheritedID, err := h.svc.Resolve("coding_inherited_tracking_intervals")
	require.NoError(t, err)
	members, err := h.svc.ProjectMembers(a)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, inheritedID, members[0].ID())

	assert.Equal(t, 120.0, h.seconds(t, a, nil))
	assert.Equal(t, 120.0, h.seconds(t, inheritedID, nil))
	assert.Equal(t, 120.0, h.seconds(t, parent, nil), "parent still sees the time")

	_, err = h.svc.ConvertActivityToProject(h.ctx, a)
	assert.ErrorIs(t, err, store.ErrWrongKind)
	_, err = h.svc.ConvertActivityToProject(h.ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConvertActivityToProjectMovesRunningSession(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	_, err := h.svc.Start(h.ctx, a)
	require.NoError(t, err)
	h.clock.advance(time.Minute)

	_, err = h.svc.ConvertActivityToProject(h.ctx, a)
	require.NoError(t, err)
	inheritedID, err := h.svc.Resolve("a_inherited_tracking_intervals")
	require.NoError(t, err)
	assert.Equal(t, inheritedID, h.svc.CurrentlyActive())

	h.clock.advance(time.Minute)
	_, err = h.svc.Stop(h.ctx, inheritedID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, h.seconds(t, a, nil))
	h.svc.View(func(st *store.Store) {
		assert.Equal(t, store.Inactive, st.TrackingState(a))
	})
}

func TestConvertActivityToProjectNameTaken(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	h.activity(t, "a_inherited_tracking_intervals")

	_, err := h.svc.ConvertActivityToProject(h.ctx, a)
	assert.ErrorIs(t, err, store.ErrNameConflict)
	h.svc.View(func(st *store.Store) {
		assert.NotNil(t, st.Activity(a), "activity untouched")
	})
}

func TestConvertRoundTrip(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	h.track(t, a, 90*time.Second)
	before := h.svc.Intervals(a)

	_, err := h.svc.ConvertActivityToProject(h.ctx, a)
	require.NoError(t, err)
	back, err := h.svc.ConvertProjectToActivity(h.ctx, a)
	require.NoError(t, err)

	assert.False(t, back.IsProject())
	assert.Equal(t, a, back.ID())
	assert.Equal(t, before, h.svc.Intervals(a))
	assert.Equal(t, 90.0, h.seconds(t, a, nil))

	_, err = h.svc.ConvertProjectToActivity(h.ctx, a)
	assert.ErrorIs(t, err, store.ErrWrongKind)
}

func TestConvertProjectToActivityReleasesMembers(t *testing.T) {
	h := newHarness(t)
	a := h.activity(t, "a")
	p := h.project(t, "p")
	parent := h.project(t, "parent")
	h.svc.AddMember(h.ctx, p, a)
	h.svc.AddMember(h.ctx, parent, p)
	h.track(t, a, time.Minute)

	_, err := h.svc.ConvertProjectToActivity(h.ctx, p)
	require.NoError(t, err)

	h.svc.View(func(st *store.Store) {
		assert.Empty(t, st.Observers(a))
		assert.Equal(t, []string{parent}, st.Observers(p))
	})
	assert.Equal(t, 60.0, h.seconds(t, p, nil), "own history becomes the activity's")
}
