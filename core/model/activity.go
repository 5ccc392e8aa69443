package model

// ActivityRecord is one row of a day plan as it is stored in the note: every
// cell is a string, flags hold a marker character.
type ActivityRecord struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	DeclaredLength string `json:"length" yaml:"length"`
	Start          string `json:"start" yaml:"start"`
	IsFixed        string `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	IsRigid        string `json:"rigid,omitempty" yaml:"rigid,omitempty"`
	// ActualLength is written by the scheduler; input values are ignored.
	ActualLength string `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// Activity is the resolved form of an ActivityRecord. Minute offsets count
// from midnight of the plan's first day and may exceed 1440 when the plan
// runs past midnight.
type Activity struct {
	ID             string
	Name           string
	DeclaredLength int // requested duration in minutes
	StartMinute    int
	StopMinute     int
	IsFixed        bool
	IsRigid        bool
	ActualLength   int // allocated duration in minutes

	// AnchorMinute is the clock time parsed from the record for a fixed
	// activity, 0 otherwise. Scheduling never modifies it.
	AnchorMinute int
}
