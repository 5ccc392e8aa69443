package scheduler

import (
	"math"

	"github.com/kilianp07/dayplan/core/model"
)

// allocate distributes duration over acts. Rigid activities keep their
// declared length unless every activity in the segment is rigid; the others
// share what is left in proportion to their declared length. Zero-length
// activities, such as anchor rows, do not count when deciding whether the
// segment is all rigid. Shares are
// rounded and the accumulated rounding error is handed to the last activity
// with a positive length so the segment adds up to duration.
//
// A negative remaining duration (rigid activities claiming more than the
// segment holds) is not rejected and yields negative lengths.
func allocate(duration int, acts []model.Activity) {
	if len(acts) == 0 {
		return
	}
	if len(acts) == 1 {
		acts[0].ActualLength = duration
		acts[0].StopMinute = acts[0].StartMinute + duration
		return
	}

	total, rigidTotal := 0, 0
	allRigid := true
	for _, a := range acts {
		total += a.DeclaredLength
		if a.IsRigid {
			rigidTotal += a.DeclaredLength
		} else if a.DeclaredLength != 0 {
			allRigid = false
		}
	}
	offset := rigidTotal
	if allRigid {
		offset = 0
	}

	var remainder float64
	receiver := -1
	for i := range acts {
		a := &acts[i]
		if a.IsRigid && !allRigid {
			a.ActualLength = a.DeclaredLength
			continue
		}
		share := float64(duration-offset) * float64(a.DeclaredLength) / float64(total-offset)
		if math.IsNaN(share) || math.IsInf(share, 0) {
			share = 0
		}
		a.ActualLength = roundHalfUp(share)
		remainder += share - float64(a.ActualLength)
		if a.ActualLength > 0 {
			receiver = i
		}
	}
	if receiver >= 0 {
		acts[receiver].ActualLength += roundHalfUp(remainder)
	}
	flow(acts)
}

// flow chains acts from the first start: each activity starts where the
// previous one stopped.
func flow(acts []model.Activity) {
	for i := range acts {
		if i > 0 {
			acts[i].StartMinute = acts[i-1].StopMinute
		}
		acts[i].StopMinute = acts[i].StartMinute + acts[i].ActualLength
	}
}

// roundHalfUp rounds halves towards positive infinity.
func roundHalfUp(f float64) int {
	return int(math.Floor(f + 0.5))
}
