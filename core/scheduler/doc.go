// Package scheduler resolves the timing of a day plan.
//
// A plan is an ordered list of activities. Fixed activities are anchored to a
// clock time, rigid activities keep their declared length, and every other
// activity is stretched or shrunk so that the plan exactly fills the time
// between consecutive anchors. The scheduler splits the list at each fixed
// activity, allocates every segment proportionally to declared lengths and
// stitches the segments back into one continuous timeline.
//
// The scheduler is pure: it performs no I/O, holds no locks and yields the
// same output for the same input. Scheduling resolved output again is a
// no-op.
package scheduler
