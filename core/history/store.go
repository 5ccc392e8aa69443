// Package history keeps a journal of scheduling passes: which plan was
// resolved, when, what triggered it and the resulting rows. Backends are a
// JSONL file, a size-rotated JSONL file and a SQLite database.
package history

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/dayplan/core/model"
)

// PassRecord captures one resolved plan.
type PassRecord struct {
	Timestamp   time.Time              `json:"timestamp"`
	Source      string                 `json:"source"`
	Plan        string                 `json:"plan"`
	Changed     bool                   `json:"changed"`
	SpanMinutes int                    `json:"span_minutes"`
	Activities  []model.ActivityRecord `json:"activities"`
}

// Query defines filters for retrieving records. Zero values match
// everything.
type Query struct {
	Start      time.Time
	End        time.Time
	Plan       string
	ActivityID string
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r PassRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Plan != "" && r.Plan != q.Plan {
		return false
	}
	if q.ActivityID == "" {
		return true
	}
	for _, a := range r.Activities {
		if a.ID == q.ActivityID {
			return true
		}
	}
	return false
}

// Store persists PassRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec PassRecord) error
	Query(ctx context.Context, q Query) ([]PassRecord, error)
	Close() error
}

func sortByTime(recs []PassRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
}
