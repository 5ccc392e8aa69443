package scheduler

import (
	"time"

	"github.com/kilianp07/dayplan/core/cell"
	"github.com/kilianp07/dayplan/core/model"
)

// Scheduler holds one day plan and its resolved timeline.
type Scheduler struct {
	records     []model.ActivityRecord
	activities  []model.Activity
	firstAnchor int
	lastAnchor  int
}

// New parses records and schedules them immediately. Plans with fewer than
// two activities are accepted but carry no meaningful timing; callers should
// reject them beforehand.
func New(records []model.ActivityRecord) *Scheduler {
	s := &Scheduler{
		records:    append([]model.ActivityRecord(nil), records...),
		activities: make([]model.Activity, len(records)),
	}
	for i, r := range records {
		a := model.Activity{
			ID:             r.ID,
			Name:           r.Name,
			DeclaredLength: cell.ParseLength(r.DeclaredLength),
			IsFixed:        cell.ParseFlag(r.IsFixed),
			IsRigid:        cell.ParseFlag(r.IsRigid),
		}
		if a.IsFixed {
			a.AnchorMinute = cell.ParseTimeToMinute(r.Start)
		}
		s.activities[i] = a
	}
	s.Schedule()
	return s
}

// Resolve schedules records and returns them with start and actual length
// filled in.
func Resolve(records []model.ActivityRecord) []model.ActivityRecord {
	return New(records).Records()
}

// Schedule recomputes the timeline from the declared lengths, flags and
// anchors. It is idempotent.
func (s *Scheduler) Schedule() {
	if len(s.activities) == 0 {
		return
	}
	for i := range s.activities {
		a := &s.activities[i]
		a.StartMinute = a.AnchorMinute
		a.StopMinute = 0
		a.ActualLength = 0
	}
	segs := split(s.activities)
	for _, seg := range segs {
		allocate(seg.duration, seg.activities)
	}
	merge(segs)

	s.firstAnchor = clockMinute(s.activities[0])
	s.lastAnchor = clockMinute(s.activities[len(s.activities)-1])
	if s.lastAnchor < s.firstAnchor {
		s.lastAnchor += cell.MinutesPerDay
	}
}

// Activities returns a copy of the resolved activities.
func (s *Scheduler) Activities() []model.Activity {
	return append([]model.Activity(nil), s.activities...)
}

// clockMinute is the minute of the day an activity starts at. Fixed
// activities always report their declared anchor, even when a segment in
// front of them could not fill its span and merging moved them.
func clockMinute(a model.Activity) int {
	if a.IsFixed {
		return a.AnchorMinute
	}
	m := a.StartMinute % cell.MinutesPerDay
	if m < 0 {
		m += cell.MinutesPerDay
	}
	return m
}

// Records serializes the resolved activities. ID, name and declared length
// are returned exactly as they were given, and fixed rows keep their
// declared start.
func (s *Scheduler) Records() []model.ActivityRecord {
	out := make([]model.ActivityRecord, len(s.activities))
	for i, a := range s.activities {
		r := s.records[i]
		r.IsFixed = cell.FormatFlag(a.IsFixed)
		r.IsRigid = cell.FormatFlag(a.IsRigid)
		r.Start = cell.FormatMinuteToTime(clockMinute(a))
		r.ActualLength = cell.FormatNumber(float64(a.ActualLength))
		out[i] = r
	}
	return out
}

// FirstAnchorMinute is the start of the plan in minutes after midnight.
func (s *Scheduler) FirstAnchorMinute() int { return s.firstAnchor }

// LastAnchorMinute is the start of the last activity. It exceeds 1440 when
// the plan ends on the following day.
func (s *Scheduler) LastAnchorMinute() int { return s.lastAnchor }

// Window maps the first and last anchors onto the calendar day of ref.
func (s *Scheduler) Window(ref time.Time) (start, end time.Time) {
	day := midnight(ref)
	return day.Add(minutes(s.firstAnchor)), day.Add(minutes(s.lastAnchor))
}

// Current returns the activity in progress at now and the time left until it
// stops. A plan that crossed midnight is matched against the previous day
// when now falls before its start.
func (s *Scheduler) Current(now time.Time) (model.Activity, time.Duration, bool) {
	day := midnight(now)
	if s.lastAnchor >= cell.MinutesPerDay && now.Before(day.Add(minutes(s.firstAnchor))) {
		day = midnight(day.AddDate(0, 0, -1))
	}
	offset := int(now.Sub(day) / time.Minute)
	for _, a := range s.activities {
		if a.StartMinute <= offset && offset < a.StopMinute {
			return a, day.Add(minutes(a.StopMinute)).Sub(now), true
		}
	}
	return model.Activity{}, 0, false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
