package scheduler

import (
	"github.com/kilianp07/dayplan/core/cell"
	"github.com/kilianp07/dayplan/core/model"
)

// segment is a run of activities bounded by two anchors. activities aliases
// the scheduler's slice so allocation writes through.
type segment struct {
	duration   int
	activities []model.Activity
}

// split cuts acts in front of every fixed activity. A segment lasts from its
// first start to the next anchor; the trailing segment runs to the last
// activity's anchor, which is midnight when that activity is not fixed.
func split(acts []model.Activity) []segment {
	var segs []segment
	begin := 0
	for i := 0; i+1 < len(acts); i++ {
		if !acts[i+1].IsFixed {
			continue
		}
		segs = append(segs, segment{
			duration:   span(acts[begin].StartMinute, acts[i+1].StartMinute),
			activities: acts[begin : i+1],
		})
		begin = i + 1
	}
	last := acts[len(acts)-1]
	segs = append(segs, segment{
		duration:   span(acts[begin].StartMinute, last.AnchorMinute),
		activities: acts[begin:],
	})
	return segs
}

// span is the distance between two clock minutes, assuming to is on the
// following day when it is earlier than from.
func span(from, to int) int {
	d := to - from
	if d < 0 {
		d += cell.MinutesPerDay
	}
	return d
}
