package scheduler

// merge glues consecutive segments: every segment after the first is
// reflowed to start where the previous one stopped. For a plan that crosses
// midnight this moves the later anchors past minute 1440.
func merge(segs []segment) {
	for i := 1; i < len(segs); i++ {
		prev := segs[i-1].activities
		cur := segs[i].activities
		cur[0].StartMinute = prev[len(prev)-1].StopMinute
		flow(cur)
	}
}
