package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dayplan/core/model"
)

func fixed(id, start, length string) model.ActivityRecord {
	return model.ActivityRecord{ID: id, Name: id, DeclaredLength: length, Start: start, IsFixed: "x"}
}

func flexible(id, length string) model.ActivityRecord {
	return model.ActivityRecord{ID: id, Name: id, DeclaredLength: length}
}

func rigid(r model.ActivityRecord) model.ActivityRecord {
	r.IsRigid = "x"
	return r
}

func lengths(acts []model.Activity) []int {
	out := make([]int, len(acts))
	for i, a := range acts {
		out[i] = a.ActualLength
	}
	return out
}

func assertContinuous(t *testing.T, acts []model.Activity) {
	t.Helper()
	for i := 1; i < len(acts); i++ {
		require.Equal(t, acts[i-1].StopMinute, acts[i].StartMinute, "gap before %s", acts[i].ID)
	}
	for _, a := range acts {
		require.Equal(t, a.StartMinute+a.ActualLength, a.StopMinute, "stop of %s", a.ID)
	}
}

func TestProportionalSplitWithRigid(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "09:00", "0"),
		flexible("b", "30"),
		rigid(flexible("c", "30")),
		fixed("end", "10:30", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{0, 60, 30, 0}, lengths(acts))

	recs := s.Records()
	assert.Equal(t, "09:00", recs[0].Start)
	assert.Equal(t, "09:00", recs[1].Start)
	assert.Equal(t, "60", recs[1].ActualLength)
	assert.Equal(t, "10:00", recs[2].Start)
	assert.Equal(t, "30", recs[2].ActualLength)
	assert.Equal(t, "10:30", recs[3].Start)
	assert.Equal(t, "0", recs[3].ActualLength)
}

func TestAllRigidSegmentSharesProportionally(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "09:00", "0"),
		rigid(flexible("b", "10")),
		rigid(flexible("c", "10")),
		fixed("end", "09:30", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{0, 15, 15, 0}, lengths(acts))
	assert.Equal(t, 9*60+30, acts[3].StartMinute)

	recs := s.Records()
	assert.Equal(t, "09:15", recs[2].Start)
	assert.Equal(t, "09:30", recs[3].Start)
}

func TestZeroLengthRigidRowStaysZero(t *testing.T) {
	s := New([]model.ActivityRecord{
		rigid(fixed("start", "09:00", "0")),
		rigid(flexible("b", "10")),
		rigid(flexible("c", "30")),
		fixed("end", "10:20", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{0, 20, 60, 0}, lengths(acts))
}

func TestRigidKeepsLengthNextToFlexible(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "08:00", "0"),
		rigid(flexible("standup", "15")),
		flexible("focus", "60"),
		flexible("mail", "20"),
		fixed("lunch", "12:00", "45"),
		rigid(flexible("walk", "20")),
		flexible("review", "10"),
		fixed("end", "14:00", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, 15, acts[1].ActualLength)
	assert.Equal(t, 20, acts[5].ActualLength)
	// 120 minutes minus the rigid walk leaves 100 for lunch (45) and
	// review (10).
	assert.Equal(t, 82, acts[4].ActualLength)
	assert.Equal(t, 18, acts[6].ActualLength)
}

func TestSegmentConservation(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "07:00", "0"),
		flexible("a", "7"),
		flexible("b", "11"),
		flexible("c", "13"),
		fixed("mid", "08:40", "0"),
		flexible("d", "1"),
		flexible("e", "1"),
		flexible("f", "1"),
		fixed("end", "09:00", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, 100, acts[0].ActualLength+acts[1].ActualLength+acts[2].ActualLength+acts[3].ActualLength)
	assert.Equal(t, 20, acts[4].ActualLength+acts[5].ActualLength+acts[6].ActualLength+acts[7].ActualLength)
	assert.Equal(t, 8*60+40, acts[4].StartMinute)
	assert.Equal(t, 9*60, acts[8].StartMinute)
}

func TestRemainderSkipsZeroLengthActivity(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "09:00", "0"),
		flexible("a", "10"),
		flexible("b", "10"),
		flexible("ignored", "0"),
		fixed("end", "09:31", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, 0, acts[3].ActualLength)
	assert.Equal(t, 31, acts[1].ActualLength+acts[2].ActualLength)
	assert.Equal(t, 9*60+31, acts[4].StartMinute)
}

func TestLoneActivityAbsorbsSegment(t *testing.T) {
	s := New([]model.ActivityRecord{
		rigid(fixed("start", "09:00", "5")),
		fixed("meeting", "09:45", "200"),
		fixed("end", "10:00", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{45, 15, 0}, lengths(acts))
}

func TestWraparoundAcrossMidnight(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "23:50", "0"),
		flexible("read", "5"),
		fixed("end", "00:10", "0"),
	})
	assert.Equal(t, 23*60+50, s.FirstAnchorMinute())
	assert.Equal(t, 20, s.LastAnchorMinute()-s.FirstAnchorMinute())
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, 20, acts[1].ActualLength)
	assert.Equal(t, "00:10", s.Records()[2].Start)
}

func TestIdempotent(t *testing.T) {
	in := []model.ActivityRecord{
		fixed("start", "22:00", "0"),
		flexible("a", "13"),
		rigid(flexible("b", "25")),
		flexible("c", "17"),
		fixed("night", "00:30", "0"),
		flexible("d", "3"),
		fixed("end", "02:00", "0"),
	}
	s := New(in)
	first := s.Activities()
	s.Schedule()
	assert.Equal(t, first, s.Activities())

	once := s.Records()
	twice := Resolve(once)
	assert.Equal(t, once, twice)
}

func TestIdentityFieldsPreserved(t *testing.T) {
	in := []model.ActivityRecord{
		fixed("s", "09:00", "0"),
		{ID: "7f", Name: "Write | notes", DeclaredLength: " 20 ", IsRigid: "maybe", ActualLength: "999"},
		fixed("e", "09:10", "0"),
	}
	out := Resolve(in)
	require.Len(t, out, 3)
	assert.Equal(t, "7f", out[1].ID)
	assert.Equal(t, "Write | notes", out[1].Name)
	assert.Equal(t, " 20 ", out[1].DeclaredLength)
	assert.Equal(t, "", out[1].IsRigid)
	assert.Equal(t, "10", out[1].ActualLength)
}

func TestMalformedCellsDegradeToZero(t *testing.T) {
	out := Resolve([]model.ActivityRecord{
		fixed("s", "nine", "abc"),
		flexible("a", "??"),
		fixed("e", "00:30", ""),
	})
	assert.Equal(t, "00:00", out[0].Start)
	assert.Equal(t, "0", out[0].ActualLength)
	assert.Equal(t, "0", out[1].ActualLength)
	assert.Equal(t, "00:30", out[2].Start)
}

func TestUnfilledSegmentKeepsDeclaredAnchor(t *testing.T) {
	in := []model.ActivityRecord{
		fixed("start", "09:00", "0"),
		flexible("task", ""),
		fixed("end", "17:00", "0"),
	}
	s := New(in)
	acts := s.Activities()
	assertContinuous(t, acts)
	// nothing can absorb the day, so the end row moves up internally
	assert.Equal(t, 9*60, acts[2].StartMinute)
	assert.Equal(t, 17*60, s.LastAnchorMinute())

	first := s.Records()
	assert.Equal(t, "17:00", first[2].Start)
	second := Resolve(first)
	assert.Equal(t, first, second)
	assert.Equal(t, "17:00", second[2].Start)
}

// Rigid rows that claim more than the segment holds are not rejected: the
// flexible rows receive negative lengths.
func TestRigidOvercommitYieldsNegativeLength(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "09:00", "0"),
		flexible("b", "30"),
		rigid(flexible("c", "60")),
		fixed("end", "09:45", "0"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{0, -15, 60, 0}, lengths(acts))
	assert.Equal(t, 9*60+45, acts[3].StartMinute)
}

func TestTrailingOpenSegmentRunsToMidnight(t *testing.T) {
	s := New([]model.ActivityRecord{
		fixed("start", "20:00", "0"),
		flexible("a", "1"),
		flexible("b", "3"),
	})
	acts := s.Activities()
	assertContinuous(t, acts)
	assert.Equal(t, []int{0, 60, 180}, lengths(acts))
}

func TestShortPlansDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { New(nil) })
	s := New([]model.ActivityRecord{fixed("only", "10:00", "30")})
	assert.Equal(t, 0, s.Activities()[0].ActualLength)
}

func TestWindowAndCurrent(t *testing.T) {
	loc := time.UTC
	s := New([]model.ActivityRecord{
		fixed("start", "23:00", "0"),
		flexible("a", "30"),
		flexible("b", "30"),
		fixed("end", "01:00", "0"),
	})
	ref := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	start, end := s.Window(ref)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2025, 3, 11, 1, 0, 0, 0, loc), end)

	act, left, ok := s.Current(time.Date(2025, 3, 10, 23, 20, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, "a", act.ID)
	assert.Equal(t, 40*time.Minute, left)

	act, left, ok = s.Current(time.Date(2025, 3, 11, 0, 30, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, "b", act.ID)
	assert.Equal(t, 30*time.Minute, left)

	_, _, ok = s.Current(time.Date(2025, 3, 11, 1, 30, 0, 0, loc))
	assert.False(t, ok)
}
